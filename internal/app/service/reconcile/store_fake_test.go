package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/types"
)

// fakeStore is an in-memory Store with the same transition semantics as the
// gorm-backed one: conditional updates report whether a row changed, and
// unique keys surface entitlement.ErrDuplicate.
type fakeStore struct {
	mu sync.Mutex

	profiles  map[string]*models.Profile
	orders    map[string]*models.MembershipOrder
	plans     map[string]*models.SubscriptionPlan
	subs      map[string]*models.Subscription        // by provider subscription id
	invoices  map[string]*models.SubscriptionInvoice // by provider invoice id
	campaigns map[string]*models.AdCampaign          // by campaign id
	purchases map[string]*models.CampaignPurchase    // by provider session id

	nextID int

	// failWith forces an error from every accessor when set.
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:  map[string]*models.Profile{},
		orders:    map[string]*models.MembershipOrder{},
		plans:     map[string]*models.SubscriptionPlan{},
		subs:      map[string]*models.Subscription{},
		invoices:  map[string]*models.SubscriptionInvoice{},
		campaigns: map[string]*models.AdCampaign{},
		purchases: map[string]*models.CampaignPurchase{},
	}
}

func (f *fakeStore) genID() string {
	f.nextID++
	return fmt.Sprintf("fake-%d", f.nextID)
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, entitlement.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdateProfileMembership(_ context.Context, id, planID string, startedAt, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	p, ok := f.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, entitlement.ErrNotFound)
	}
	p.MembershipPlanID = &planID
	if p.MembershipStartedAt == nil {
		p.MembershipStartedAt = &startedAt
	}
	p.MembershipExpiresAt = &expiresAt
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (*models.MembershipOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, entitlement.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) MarkOrderPaid(_ context.Context, orderID, paymentIntentID string, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	o, ok := f.orders[orderID]
	if !ok || o.Status != types.OrderStatusPending {
		return false, nil
	}
	o.Status = types.OrderStatusPaid
	o.ProviderPaymentIntentID = &paymentIntentID
	o.PaidAt = &paidAt
	return true, nil
}

func (f *fakeStore) MarkOrderFailed(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	o, ok := f.orders[orderID]
	if !ok || o.Status != types.OrderStatusPending {
		return false, nil
	}
	o.Status = types.OrderStatusFailed
	return true, nil
}

func (f *fakeStore) GetPlan(_ context.Context, id string) (*models.SubscriptionPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, entitlement.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetSubscriptionByProviderID(_ context.Context, providerSubID string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	s, ok := f.subs[providerSubID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CreateSubscription(_ context.Context, sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, exists := f.subs[sub.ProviderSubscriptionID]; exists {
		return fmt.Errorf("subscription %s: %w", sub.ProviderSubscriptionID, entitlement.ErrDuplicate)
	}
	if sub.ID == "" {
		sub.ID = f.genID()
	}
	cp := *sub
	f.subs[sub.ProviderSubscriptionID] = &cp
	return nil
}

func (f *fakeStore) UpdateSubscriptionByProviderID(_ context.Context, providerSubID string, upd entitlement.SubscriptionUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	s, ok := f.subs[providerSubID]
	if !ok {
		return false, nil
	}
	if upd.Status != nil {
		s.Status = *upd.Status
	}
	if upd.CancelAtPeriodEnd != nil {
		s.CancelAtPeriodEnd = *upd.CancelAtPeriodEnd
	}
	if upd.CurrentPeriodStart != nil {
		s.CurrentPeriodStart = upd.CurrentPeriodStart
	}
	if upd.CurrentPeriodEnd != nil {
		s.CurrentPeriodEnd = upd.CurrentPeriodEnd
	}
	if upd.CanceledAt != nil {
		s.CanceledAt = upd.CanceledAt
	}
	if upd.EndedAt != nil {
		s.EndedAt = upd.EndedAt
	}
	return true, nil
}

func (f *fakeStore) CreateInvoice(_ context.Context, inv *models.SubscriptionInvoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, exists := f.invoices[inv.ProviderInvoiceID]; exists {
		return fmt.Errorf("invoice %s: %w", inv.ProviderInvoiceID, entitlement.ErrDuplicate)
	}
	if inv.ID == "" {
		inv.ID = f.genID()
	}
	cp := *inv
	f.invoices[inv.ProviderInvoiceID] = &cp
	return nil
}

func (f *fakeStore) GetActiveCampaign(_ context.Context, businessID string, now time.Time) (*models.AdCampaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var latest *models.AdCampaign
	for _, c := range f.campaigns {
		if c.BusinessID != businessID || !c.Live(now) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) CreateCampaign(_ context.Context, c *models.AdCampaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	sessionID := ""
	if c.ProviderSessionID != nil {
		sessionID = *c.ProviderSessionID
	}
	if _, applied := f.purchases[sessionID]; applied {
		return fmt.Errorf("campaign session %s: %w", sessionID, entitlement.ErrDuplicate)
	}
	if c.ID == "" {
		c.ID = f.genID()
	}
	f.purchases[sessionID] = &models.CampaignPurchase{
		ID:                f.genID(),
		CampaignID:        c.ID,
		BusinessID:        c.BusinessID,
		Days:              c.DaysPurchased,
		AmountCents:       c.TotalAmountCents,
		ProviderSessionID: sessionID,
	}
	c.CreatedAt = time.Now()
	cp := *c
	f.campaigns[c.ID] = &cp
	return nil
}

func (f *fakeStore) ExtendCampaign(_ context.Context, campaignID string, ext entitlement.CampaignExtension) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	// Ledger check first, like the gorm store: a session applied to any
	// campaign at any time stays applied.
	if _, applied := f.purchases[ext.SessionID]; applied {
		return false, nil
	}
	c, ok := f.campaigns[campaignID]
	if !ok {
		return false, fmt.Errorf("campaign %s: %w", campaignID, entitlement.ErrNotFound)
	}
	f.purchases[ext.SessionID] = &models.CampaignPurchase{
		ID:                f.genID(),
		CampaignID:        campaignID,
		BusinessID:        ext.BusinessID,
		Days:              ext.AddDays,
		AmountCents:       ext.AddAmountCents,
		ProviderSessionID: ext.SessionID,
	}
	c.Status = types.CampaignStatusActive
	c.EndAt = ext.NewEndAt
	c.DaysPurchased += ext.AddDays
	c.TotalAmountCents += ext.AddAmountCents
	c.DiscountPercent = ext.DiscountPercent
	c.HadMembership = ext.HadMembership
	sess := ext.SessionID
	pi := ext.PaymentIntentID
	c.ProviderSessionID = &sess
	c.ProviderPaymentIntentID = &pi
	return true, nil
}

// nonTerminalCampaigns counts rows a reader would treat as live or pending.
func (f *fakeStore) nonTerminalCampaigns(businessID string, now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.campaigns {
		if c.BusinessID != businessID {
			continue
		}
		switch c.EffectiveStatus(now) {
		case types.CampaignStatusActive, types.CampaignStatusPendingPayment:
			n++
		}
	}
	return n
}

// fakeJournal drops entries; journaling is exercised separately.
type fakeJournal struct{}

func (fakeJournal) Save(context.Context, *models.WebhookEventLog) {}
