package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First sentence.  Second one!!! Third?\nFourth... ")
	want := []string{"First sentence", "Second one", "Third", "Fourth"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if len(SplitSentences("")) != 0 {
		t.Error("Expected no sentences for empty text")
	}
	if len(SplitSentences(" ... !? ")) != 0 {
		t.Error("Expected no sentences for punctuation-only text")
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("The EARTH orbits (the) Sun, doesn't it?")
	want := []string{"the", "earth", "orbits", "the", "sun", "doesn't", "it"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if len(Tokens("  -- ")) != 0 {
		t.Error("Expected punctuation-only fields to be dropped")
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("the cat and the hat")
	if len(set) != 4 {
		t.Errorf("Expected 4 distinct tokens, got %d", len(set))
	}
	if _, ok := set["the"]; !ok {
		t.Error("Expected 'the' in token set")
	}
}

func TestVerificationClaims(t *testing.T) {
	text := "Earth orbits the Sun. Short one. I think cats rule the world. " +
		"In my opinion this is great food. Perhaps it rained yesterday in town. " +
		"Water boils at one hundred degrees Celsius."

	got := VerificationClaims(text)
	want := []string{
		"Earth orbits the Sun",
		"Water boils at one hundred degrees Celsius",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestVerificationClaims_LengthBoundary(t *testing.T) {
	// exactly 15 characters is too short, 16 is kept
	if claims := VerificationClaims("abcdefghijklmno."); len(claims) != 0 {
		t.Errorf("Expected 15-char sentence to be dropped, got %q", claims)
	}
	if claims := VerificationClaims("abcdefghijklmnop."); len(claims) != 1 {
		t.Errorf("Expected 16-char sentence to be kept, got %q", claims)
	}
}

func TestVerificationClaims_HedgeCaseInsensitive(t *testing.T) {
	if claims := VerificationClaims("PERHAPS the moon is made of cheese."); len(claims) != 0 {
		t.Errorf("Expected hedged sentence to be dropped, got %q", claims)
	}
}

func TestFactualClaims(t *testing.T) {
	text := "Paris is the capital of France. Earth orbits the Sun every year. " +
		"The museums have many paintings. I think Rome is older than Paris."

	got := FactualClaims(text)
	want := []string{
		"Paris is the capital of France",
		"The museums have many paintings",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFactualClaims_CopulaIsWholeToken(t *testing.T) {
	// "this" and "island" contain "is" but are not copulas
	if claims := FactualClaims("Look at this lovely island today."); len(claims) != 0 {
		t.Errorf("Expected no factual claims, got %q", claims)
	}
}

func TestNormalizeClaim(t *testing.T) {
	if got := NormalizeClaim("  Paris   IS the Capital "); got != "paris is the capital" {
		t.Errorf("Expected normalized claim, got %q", got)
	}
}

func TestVisibleText_SkipScripts(t *testing.T) {
	html := `
	<html>
	<head>
		<script>
			var text = "The system was first developed in 1995.";
		</script>
		<style>
			/* hidden */
		</style>
	</head>
	<body>
		<p>The product was first introduced in 2020.</p>
		<noscript>Enable JavaScript.</noscript>
	</body>
	</html>
	`

	text, err := VisibleText(html)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(text, "1995") {
		t.Error("Should not extract text from script tags")
	}
	if strings.Contains(text, "hidden") {
		t.Error("Should not extract text from style tags")
	}
	if strings.Contains(text, "JavaScript") {
		t.Error("Should not extract text from noscript tags")
	}
	if !strings.Contains(text, "introduced in 2020") {
		t.Errorf("Expected body text, got %q", text)
	}
}
