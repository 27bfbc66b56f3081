package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
)

const dateLayout = "2006-01-02"

// PlanAssignor keeps the time-boxed trial bookkeeping. There is no billing
// behind it.
type PlanAssignor struct {
	accounts   domain.AccountStore
	trialDays  int
	inactivity time.Duration
	nowF       func() time.Time
}

func NewPlanAssignor(accounts domain.AccountStore, trialDays, inactivityDays int) *PlanAssignor {
	return &PlanAssignor{
		accounts:   accounts,
		trialDays:  trialDays,
		inactivity: time.Duration(inactivityDays) * 24 * time.Hour,
		nowF:       time.Now,
	}
}

// Assign applies the lifecycle policy for a login and records it.
// LastLoginAt is bumped on every branch.
func (p *PlanAssignor) Assign(ctx context.Context, acc *domain.Account, isNewUser bool) (domain.PlanInfo, error) {
	now := p.nowF()
	info := domain.PlanInfo{}

	switch {
	case isNewUser || acc.LastLoginAt == nil:
		start := truncateDay(now)
		end := start.AddDate(0, 0, p.trialDays)
		acc.Plan = domain.PlanTrial
		acc.PlanStart = &start
		acc.PlanEnd = &end
		info.TrialAssigned = true
	case now.Sub(*acc.LastLoginAt) > p.inactivity:
		if acc.Plan != domain.PlanFree {
			info.Downgraded = true
		}
		acc.Plan = domain.PlanFree
	}

	acc.LastLoginAt = &now
	acc.ConnectionStatus = domain.ConnectionConnected

	if err := p.accounts.UpdateAccountLogin(ctx, acc); err != nil {
		return domain.PlanInfo{}, fmt.Errorf("%w: update account: %v", domain.ErrDownstream, err)
	}

	info.Plan = acc.Plan
	info.PlanStart = formatDate(acc.PlanStart)
	info.PlanEnd = formatDate(acc.PlanEnd)
	return info, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
