package model

import (
	"errors"
	"testing"
)

func TestBucketOf_CaseInsensitive(t *testing.T) {
	tests := []struct {
		source string
		want   SourceBucket
	}{
		{"reddit", SourceReddit},
		{"Reddit", SourceReddit},
		{"GOOGLE", SourceGoogle},
		{"TikTok", SourceTikTok},
		{"instagram", SourceInstagram},
		{"yelp", SourceOthers},
		{"", SourceOthers},
		{" reddit", SourceOthers},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := BucketOf(tt.source); got != tt.want {
				t.Errorf("BucketOf(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestCommissionRate(t *testing.T) {
	want := map[SourceBucket]float64{
		SourceReddit:    0.10,
		SourceGoogle:    0.07,
		SourceTikTok:    0.05,
		SourceInstagram: 0.05,
		SourceOthers:    0.02,
	}
	for b, rate := range want {
		if got := CommissionRate(b); got != rate {
			t.Errorf("CommissionRate(%q) = %v, want %v", b, got, rate)
		}
	}
	if got := CommissionRate("unknown"); got != 0.02 {
		t.Errorf("CommissionRate(unknown) = %v, want 0.02", got)
	}
}

func TestParseListingStatus(t *testing.T) {
	for _, s := range []string{"active", "awaiting", "deleted"} {
		got, err := ParseListingStatus(s)
		if err != nil {
			t.Fatalf("ParseListingStatus(%q) returned error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseListingStatus(%q) = %q", s, got)
		}
	}

	_, err := ParseListingStatus("removed")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != ErrCodeInvalidStatus {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeInvalidStatus)
	}
}

func TestListing_Content_PrefersSummary(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		want    string
	}{
		{"summaryあり", Listing{Summary: "s", Text: "t", Description: "d"}, "s"},
		{"textのみ", Listing{Text: "t", Description: "d"}, "t"},
		{"空白のsummaryはスキップ", Listing{Summary: "  ", Description: "d"}, "d"},
		{"本文なし", Listing{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.listing.Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail_StripsWhitespace(t *testing.T) {
	if got := NormalizeEmail(" a @x.com\t"); got != "a@x.com" {
		t.Errorf("NormalizeEmail = %q, want %q", got, "a@x.com")
	}
	if !EqualEmail("A@X.com", " a@x.COM") {
		t.Error("EqualEmail should ignore case and whitespace")
	}
	if EqualEmail("a@x.com", "b@x.com") {
		t.Error("EqualEmail should not match different addresses")
	}
}
