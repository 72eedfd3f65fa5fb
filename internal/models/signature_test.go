package models

import "testing"

func TestBuildSignatureOrderIndependent(t *testing.T) {
	first := BuildSignature(Selection{
		1: {"red"},
		2: {"xl"},
	})
	second := BuildSignature(Selection{
		2: {"xl"},
		1: {"red"},
	})
	if !first.Equal(second) {
		t.Fatalf("signatures differ: %q vs %q", first.String(), second.String())
	}
	if first.String() != "1:red;2:xl" {
		t.Fatalf("unexpected canonical form: %q", first.String())
	}
}

func TestBuildSignatureDedupesAndSkipsBlank(t *testing.T) {
	sig := BuildSignature(Selection{
		3: {"a", "a", " ", "b"},
	})
	if sig.String() != "3:a;3:b" {
		t.Fatalf("unexpected canonical form: %q", sig.String())
	}
	if len(sig.Tokens()) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(sig.Tokens()))
	}
}

func TestBuildSignatureEmpty(t *testing.T) {
	if !BuildSignature(nil).IsEmpty() {
		t.Fatal("nil selection should produce empty signature")
	}
	if !BuildSignature(Selection{1: {""}}).IsEmpty() {
		t.Fatal("blank keys should produce empty signature")
	}
}

func TestParseSignatureNormalizes(t *testing.T) {
	sig := ParseSignature("2:xl;1:red;2:xl; ;")
	if sig.String() != "1:red;2:xl" {
		t.Fatalf("unexpected canonical form: %q", sig.String())
	}
	rebuilt := BuildSignature(Selection{1: {"red"}, 2: {"xl"}})
	if !sig.Equal(rebuilt) {
		t.Fatalf("parsed signature should equal rebuilt: %q vs %q", sig.String(), rebuilt.String())
	}
}

func TestSignatureTokensCopy(t *testing.T) {
	sig := BuildSignature(Selection{1: {"red"}})
	tokens := sig.Tokens()
	tokens[0] = "mutated"
	if sig.Tokens()[0] != "1:red" {
		t.Fatal("Tokens should return a copy")
	}
}
