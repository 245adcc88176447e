package matcher

import "testing"

func TestSuggestColumnFindsTypo(t *testing.T) {
	headers := []string{"Match Name", "Chromosone", "Start Location", "End Location"}
	got, ok := SuggestColumn(headers, []string{"Chromosome", "Kromosomi"}, DefaultThreshold)
	if !ok || got != "Chromosone" {
		t.Fatalf("want Chromosone, got %q (ok=%v)", got, ok)
	}
}

func TestSuggestColumnIgnoresUnits(t *testing.T) {
	headers := []string{"Name", "Shared  dna (cM)"}
	got, ok := SuggestColumn(headers, []string{"Shared DNA"}, DefaultThreshold)
	if !ok || got != "Shared  dna (cM)" {
		t.Fatalf("want header with units, got %q (ok=%v)", got, ok)
	}
}

func TestSuggestColumnNothingClose(t *testing.T) {
	headers := []string{"Foo", "Bar"}
	if got, ok := SuggestColumn(headers, []string{"Shared DNA"}, DefaultThreshold); ok {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}

func TestSuggestColumnEmptyHeaders(t *testing.T) {
	if _, ok := SuggestColumn(nil, []string{"Chromosome"}, DefaultThreshold); ok {
		t.Fatalf("expected no suggestion for empty header")
	}
}
