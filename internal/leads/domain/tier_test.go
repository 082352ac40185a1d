package domain

import (
	"reflect"
	"testing"
)

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		timeline string
		savings  int64
		want     Tier
	}{
		{"0-6mo", 25000, TierHot},
		{"1-3y", 5000, TierCold},
		{"1-3y", 15000, TierWarm},
		{"exploring", 5000, TierCold},
		{"6-12mo", 12000, TierWarm},
		{"6-12mo", 20000, TierHot},
		{"1-3y", 50000, TierCold},
		{"6-12mo", 0, TierWarm},
		{"someday", 15000, TierWarm},
		{"someday", 20000, TierCold},
		{"someday", 9999, TierCold},
		{"next tuesday", 100000, TierCold},
		{"", 0, TierCold},
	}

	for _, tt := range tests {
		if got := ClassifyTier(tt.timeline, tt.savings); got != tt.want {
			t.Fatalf("ClassifyTier(%q, %d) = %s, want %s", tt.timeline, tt.savings, got, tt.want)
		}
	}
}

func TestClassifyTierRegressionCases(t *testing.T) {
	if got := ClassifyTier("0-6mo", 25000); got != TierHot {
		t.Fatalf("expected hot, got %s", got)
	}
	if got := ClassifyTier("1-3y", 5000); got != TierCold {
		t.Fatalf("expected cold, got %s", got)
	}
	if got := ClassifyTier("6-12mo", 12000); got != TierWarm {
		t.Fatalf("expected warm, got %s", got)
	}
}

func TestTimelineScoreUnknownIsZero(t *testing.T) {
	for _, timeline := range []string{"", "ASAP", "0-6MO", "<script>"} {
		if got := TimelineScore(timeline); got != 0 {
			t.Fatalf("TimelineScore(%q) = %d, want 0", timeline, got)
		}
	}
}

func TestPriorityFor(t *testing.T) {
	cases := map[Tier]Priority{
		TierHot:  PriorityHigh,
		TierWarm: PriorityMedium,
		TierCold: PriorityLow,
		"":       PriorityLow,
	}
	for tier, want := range cases {
		if got := PriorityFor(tier); got != want {
			t.Fatalf("PriorityFor(%q) = %s, want %s", tier, got, want)
		}
	}
}

func TestDeriveTagsQuiz(t *testing.T) {
	lead := Lead{
		FormType:   FormQuiz,
		Tier:       TierHot,
		Phone:      "+12015550123",
		SMSConsent: true,
		Answers: &QuizAnswers{
			Timeline:      "0-6mo",
			IncomeBracket: "250k_400k",
			MonthlyCost:   "4000_6000",
		},
	}

	want := []string{
		"housing:4000_6000",
		"income:250k_400k",
		"quiz",
		"sms-opt-in",
		"tier:hot",
		"timeline:0-6mo",
	}
	if got := DeriveTags(lead); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tags: %v", got)
	}
}

func TestDeriveTagsContactWithoutConsent(t *testing.T) {
	lead := Lead{FormType: FormContact, Phone: "+12015550123", InvestmentRange: "500k_1m"}

	want := []string{"contact", "investment:500k_1m"}
	if got := DeriveTags(lead); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tags: %v", got)
	}
}
