package dynfunc

import "testing"

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("Add the parameters.", []any{float64(5), "hello", []any{1.0}, map[string]any{"k": true}, nil})
	want := "Add the parameters." +
		"\n[PARAMETER 0 of type number]\n5" +
		"\n[PARAMETER 1 of type string]\nhello" +
		"\n[PARAMETER 2 of type array]\n[1]" +
		"\n[PARAMETER 3 of type object]\n{\"k\":true}" +
		"\n[PARAMETER 4 of type null]\nnull"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildPromptNoParams(t *testing.T) {
	if got := buildPrompt("Just do it.", nil); got != "Just do it." {
		t.Fatalf("got %q", got)
	}
}
