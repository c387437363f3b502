package models

import "testing"

func TestResolveRankBoundaries(t *testing.T) {
	cases := map[int64]Rank{
		0:     RankBronze,
		99:    RankBronze,
		100:   RankSilver,
		499:   RankSilver,
		500:   RankPlatinum,
		1499:  RankPlatinum,
		1500:  RankDiamond,
		4000:  RankHeroic,
		10000: RankMaster,
		24999: RankMaster,
		25000: RankGrandmaster,
		90000: RankGrandmaster,
	}
	for xp, expected := range cases {
		if got := ResolveRank(xp); got != expected {
			t.Fatalf("xp %d expected %s got %s", xp, expected, got)
		}
	}
}

func TestResolveRankEveryThresholdInclusive(t *testing.T) {
	// Each tier's floor resolves to exactly that tier.
	for _, th := range RankThresholds {
		if got := ResolveRank(th.MinXP); got != th.Rank {
			t.Fatalf("threshold %d expected %s got %s", th.MinXP, th.Rank, got)
		}
	}
}

func TestResolveRankMonotonic(t *testing.T) {
	// Increasing xp never lowers the resolved rank.
	rankIndex := func(r Rank) int {
		for i, th := range RankThresholds {
			if th.Rank == r {
				return len(RankThresholds) - i
			}
		}
		t.Fatalf("unknown rank %s", r)
		return 0
	}
	prev := 0
	for xp := int64(0); xp <= 30000; xp += 7 {
		idx := rankIndex(ResolveRank(xp))
		if idx < prev {
			t.Fatalf("rank regressed at xp=%d", xp)
		}
		prev = idx
	}
}

func TestProgressToNext(t *testing.T) {
	p := ProgressToNext(0)
	if p.Current != RankBronze || p.Next == nil || *p.Next != RankSilver {
		t.Fatalf("expected Bronze→Silver at xp=0, got %+v", p)
	}
	if p.XPRemaining != 100 || p.Fraction != 0 {
		t.Fatalf("expected 100 remaining, fraction 0, got %+v", p)
	}

	p = ProgressToNext(50)
	if p.Fraction != 0.5 || p.XPRemaining != 50 {
		t.Fatalf("expected fraction 0.5 at xp=50, got %+v", p)
	}

	p = ProgressToNext(1500)
	if p.Current != RankDiamond || p.Next == nil || *p.Next != RankHeroic {
		t.Fatalf("expected Diamond→Heroic at xp=1500, got %+v", p)
	}
}

func TestProgressToNextTopTier(t *testing.T) {
	for _, xp := range []int64{25000, 25001, 1 << 40} {
		p := ProgressToNext(xp)
		if p.Current != RankGrandmaster {
			t.Fatalf("xp %d expected Grandmaster got %s", xp, p.Current)
		}
		if p.Next != nil {
			t.Fatalf("top tier must have no next rank")
		}
		if p.Fraction != 1.0 {
			t.Fatalf("top tier fraction must be 1.0, got %v", p.Fraction)
		}
	}
}

func TestProgressFractionClamped(t *testing.T) {
	for xp := int64(0); xp <= 26000; xp += 13 {
		p := ProgressToNext(xp)
		if p.Fraction < 0 || p.Fraction > 1 {
			t.Fatalf("fraction out of range at xp=%d: %v", xp, p.Fraction)
		}
	}
}

func TestResolveRankAfterRegression(t *testing.T) {
	// A cached high rank is never trusted: raw xp alone decides.
	if got := ResolveRank(0); got != RankBronze {
		t.Fatalf("xp reset to 0 must resolve Bronze, got %s", got)
	}
}
