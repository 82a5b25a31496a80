package signal

import (
	"math"
	"reflect"
	"testing"

	"SignalBatch/internal/domain/models"
)

func testTicker(t *testing.T) models.Ticker {
	t.Helper()
	tk, err := models.NewTicker("AAPL")
	if err != nil {
		t.Fatalf("ticker: %v", err)
	}
	return tk
}

func TestAggregateUnanimousBuy(t *testing.T) {
	results := []models.IndicatorResult{
		{Name: "rsi", Category: models.CategoryMomentum, Vote: models.VoteBuy, Confidence: 1},
		{Name: "macd", Category: models.CategoryTrend, Vote: models.VoteBuy, Confidence: 1},
	}
	v := Aggregate(testTicker(t), results, ProfileFor(DefaultStrategyID))
	if v.Score != 100 {
		t.Fatalf("expected score 100, got %v", v.Score)
	}
	if v.Signal != models.SignalBuy {
		t.Fatalf("expected BUY, got %s", v.Signal)
	}
}

func TestAggregateMixedVotes(t *testing.T) {
	// (1*0.8 - 1*0.4) / 2 * 100 = 20: inside the default hold band.
	results := []models.IndicatorResult{
		{Name: "rsi", Category: models.CategoryMomentum, Vote: models.VoteBuy, Confidence: 0.8},
		{Name: "macd", Category: models.CategoryTrend, Vote: models.VoteSell, Confidence: 0.4},
	}
	v := Aggregate(testTicker(t), results, ProfileFor(DefaultStrategyID))
	if math.Abs(v.Score-20) > 1e-9 {
		t.Fatalf("expected score 20, got %v", v.Score)
	}
	if v.Signal != models.SignalHold {
		t.Fatalf("expected HOLD, got %s", v.Signal)
	}
}

func TestAggregateExcludesFailedResults(t *testing.T) {
	// The failed indicator must not appear in the denominator either:
	// one working buy vote at full confidence still scores 100.
	results := []models.IndicatorResult{
		{Name: "rsi", Category: models.CategoryMomentum, Vote: models.VoteBuy, Confidence: 1},
		{Name: "obv", Category: models.CategoryVolume, Vote: models.VoteNeutral, Confidence: 0, Err: "window too short"},
	}
	v := Aggregate(testTicker(t), results, ProfileFor(DefaultStrategyID))
	if v.Score != 100 {
		t.Fatalf("failed result diluted the score: got %v", v.Score)
	}
}

func TestAggregateAllFailed(t *testing.T) {
	results := []models.IndicatorResult{
		{Name: "rsi", Err: "nan"},
		{Name: "macd", Err: "panic"},
	}
	v := Aggregate(testTicker(t), results, ProfileFor(DefaultStrategyID))
	if v.Score != 0 || v.Signal != models.SignalHold {
		t.Fatalf("expected neutral verdict, got score=%v signal=%s", v.Score, v.Signal)
	}
}

func TestAggregateSellThreshold(t *testing.T) {
	results := []models.IndicatorResult{
		{Name: "rsi", Category: models.CategoryMomentum, Vote: models.VoteSell, Confidence: 0.9},
	}
	v := Aggregate(testTicker(t), results, ProfileFor(DefaultStrategyID))
	if v.Score != -90 {
		t.Fatalf("expected -90, got %v", v.Score)
	}
	if v.Signal != models.SignalSell {
		t.Fatalf("expected SELL, got %s", v.Signal)
	}
}

func TestAggregateWeightsAndBias(t *testing.T) {
	// momentum profile: rsi weight 1.5, momentum bias 1.5; trend bias 1.2.
	results := []models.IndicatorResult{
		{Name: "rsi", Category: models.CategoryMomentum, Vote: models.VoteBuy, Confidence: 1},
		{Name: "macd", Category: models.CategoryTrend, Vote: models.VoteSell, Confidence: 1},
	}
	p := ProfileFor("momentum")
	num := 1.0*1.5*1.5 - 1.0*1.25*1.2
	denom := 1.5*1.5 + 1.25*1.2
	want := num / denom * 100

	v := Aggregate(testTicker(t), results, p)
	if math.Abs(v.Score-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, v.Score)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	// Same inputs must reproduce the identical verdict, timestamp
	// included: the verdict is stamped by the recorder, not here.
	results := []models.IndicatorResult{
		{Name: "rsi", Category: models.CategoryMomentum, Vote: models.VoteBuy, Confidence: 0.7},
		{Name: "bollinger", Category: models.CategoryVolatility, Vote: models.VoteSell, Confidence: 0.3},
	}
	profile := ProfileFor(DefaultStrategyID)

	first := Aggregate(testTicker(t), results, profile)
	second := Aggregate(testTicker(t), results, profile)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("verdicts differ for identical inputs:\n%+v\n%+v", first, second)
	}
	if !first.Timestamp.IsZero() {
		t.Fatalf("expected unstamped verdict, got %v", first.Timestamp)
	}
}

func TestProfileForFallsBack(t *testing.T) {
	p := ProfileFor("nonsense")
	if p.Name != DefaultStrategyID {
		t.Fatalf("expected default profile, got %s", p.Name)
	}
	if KnownStrategy("nonsense") {
		t.Fatal("nonsense must not be a known strategy")
	}
	if !KnownStrategy("conservative") {
		t.Fatal("conservative should be known")
	}
}
