package fee

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/lpmon/internal/domain"
)

func TestCalculatePositionFeesSynthetic(t *testing.T) {
	svc := NewService(domain.ModeSynthetic)
	fees := svc.CalculatePositionFees(context.Background(), "mock-position-1")

	if !fees.TotalFeeValue.Equal(decimal.RequireFromString("21.33")) {
		t.Errorf("TotalFeeValue = %s, want 21.33", fees.TotalFeeValue)
	}
	if !fees.ClaimedFees.TotalClaimedValue.Equal(decimal.RequireFromString("13.27")) {
		t.Errorf("TotalClaimedValue = %s, want 13.27", fees.ClaimedFees.TotalClaimedValue)
	}
}

func TestCalculatePositionFeesRealModeIsEmpty(t *testing.T) {
	svc := NewService(domain.ModeReal)
	fees := svc.CalculatePositionFees(context.Background(), "anything")

	if !fees.TotalFeeValue.IsZero() {
		t.Errorf("TotalFeeValue = %s, want 0", fees.TotalFeeValue)
	}
	if fees.ClaimedFees.Token1.Symbol != domain.UnknownSymbol || fees.ClaimedFees.Token1.Decimals != 6 {
		t.Errorf("empty leg = %+v, want UNKNOWN with 6 decimals", fees.ClaimedFees.Token1)
	}

	rewards := svc.GetFarmingRewards(context.Background(), "anything")
	if len(rewards.RewardTokens) != 0 || !rewards.TotalRewardValue.IsZero() {
		t.Errorf("rewards = %+v, want empty", rewards)
	}
}

func TestGetFarmingRewardsSynthetic(t *testing.T) {
	rewards := NewService(domain.ModeSynthetic).GetFarmingRewards(context.Background(), "k")
	if len(rewards.RewardTokens) != 1 || rewards.RewardTokens[0].Symbol != "SOL" {
		t.Errorf("rewards = %+v, want one SOL reward", rewards)
	}
}

func TestCalculateTotalFees(t *testing.T) {
	svc := NewService(domain.ModeSynthetic)
	total := svc.CalculateTotalFees(context.Background(), []string{"mock-position-1", "mock-position-2"})

	if len(total.Breakdown) != 2 {
		t.Fatalf("len(Breakdown) = %d, want 2", len(total.Breakdown))
	}
	tests := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"claimed", total.TotalClaimedValue, "18.38"},
		{"unclaimed", total.TotalUnclaimedValue, "12.29"},
		{"total", total.TotalFeeValue, "30.67"},
	}
	for _, tt := range tests {
		if !tt.got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}
