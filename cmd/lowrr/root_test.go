package main

import "testing"

func TestParseCropValid(t *testing.T) {
	rect, err := parseCrop("10,20,110,220")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rect.X1 != 10 || rect.Y1 != 20 || rect.X2 != 110 || rect.Y2 != 220 {
		t.Errorf("got %+v", rect)
	}
}

func TestParseCropRejectsWrongFieldCount(t *testing.T) {
	if _, err := parseCrop("10,20,30"); err == nil {
		t.Fatal("expected an error for a 3-field crop string")
	}
}

func TestParseCropRejectsNonInteger(t *testing.T) {
	if _, err := parseCrop("10,20,abc,50"); err == nil {
		t.Fatal("expected an error for a non-integer field")
	}
}
