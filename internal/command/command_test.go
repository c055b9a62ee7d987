package command

import "testing"

func TestClassifyTriggers(t *testing.T) {
	hits := []string{
		"create bill",
		"please create a sell bill for me",
		"CREATE BILL",
		"bill banao",
		"I want to sell product",
		"sell bill",
		"let's start a new sale",
		"umm can you create bill now",
	}
	for _, s := range hits {
		if got := Classify(s); got != StartSale {
			t.Errorf("Classify(%q) = %s, want start_sale", s, got)
		}
	}
}

func TestClassifyIgnoresOtherSpeech(t *testing.T) {
	misses := []string{
		"",
		"hello there",
		"what's the price of a brake pad",
		"bill",
		"sell",
	}
	for _, s := range misses {
		if got := Classify(s); got != None {
			t.Errorf("Classify(%q) = %s, want none", s, got)
		}
	}
}
