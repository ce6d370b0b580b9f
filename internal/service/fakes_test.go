package service

import (
	"context"
	"sync"

	"github.com/marketfresh/checkoutapi/internal/domain"
)

// fakeStorefront is an in-memory Storefront with per-operation counters.
type fakeStorefront struct {
	mu sync.Mutex

	addresses     []domain.Address
	datesByPostal map[string][]domain.ShippingDate
	methods       []domain.PaymentMethod
	discounts     []domain.Discount
	balance       domain.CustomerBalance
	totals        domain.OrderTotals
	coverage      map[string]bool
	minimumMsg    map[string]string

	removeDiscountErr error
	placeOrderErr     error

	validateCalls    int
	datesCalls       int
	totalsCalls      int
	discountsCalls   int
	setBalanceCalls  int
	lastBalanceValue bool
	placed           []domain.PlaceOrderRequest
}

func newFakeStorefront() *fakeStorefront {
	return &fakeStorefront{
		addresses: []domain.Address{
			{ID: "a1", Line1: "12 Main St", City: "Springfield", PostalCode: "12345", ContactName: "Sam Lee"},
			{ID: "a2", Line1: "9 Oak Ave", City: "Shelbyville", PostalCode: "67890", ContactName: "Sam Lee"},
			{ID: "a3", Line1: "1 Far Rd", City: "Nowhere", PostalCode: "00000", ContactName: "Sam Lee"},
		},
		datesByPostal: map[string][]domain.ShippingDate{
			"12345": {
				{Date: "2024-05-01", TimeSlot: "10-12", IsActive: true},
				{Date: "2024-05-02", TimeSlot: "10-12", IsActive: true},
			},
			"67890": {
				{Date: "2024-05-03", TimeSlot: "14-16", IsActive: false},
				{Date: "2024-05-04", TimeSlot: "14-16", IsActive: true},
			},
		},
		methods: []domain.PaymentMethod{
			{SystemName: domain.MethodCash, DisplayName: "Cash on delivery"},
			{SystemName: domain.MethodVisaGateway, DisplayName: "Card"},
		},
		discounts: []domain.Discount{
			{ID: "d1", CouponCode: "WELCOME10", DisplayName: "Welcome 10%"},
		},
		balance:    domain.CustomerBalance{Balance: 15, UsableForOrder: 10},
		totals:     domain.OrderTotals{Subtotal: 50, Shipping: 5, OrderTotal: 55, CartItemIDs: []string{"i1", "i2"}},
		coverage:   map[string]bool{"12345": true, "67890": true, "00000": false},
		minimumMsg: map[string]string{},
	}
}

func (f *fakeStorefront) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Address(nil), f.addresses...), nil
}

func (f *fakeStorefront) CreateAddress(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr.ID = "new-address"
	f.addresses = append(f.addresses, addr)
	return &addr, nil
}

func (f *fakeStorefront) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return nil
}

func (f *fakeStorefront) ValidatePostalCode(ctx context.Context, postalCode string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls++
	return f.coverage[postalCode], nil
}

func (f *fakeStorefront) ListShippingDates(ctx context.Context, postalCode string) ([]domain.ShippingDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.datesCalls++
	return append([]domain.ShippingDate(nil), f.datesByPostal[postalCode]...), nil
}

func (f *fakeStorefront) ListPaymentMethods(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PaymentMethod(nil), f.methods...), nil
}

func (f *fakeStorefront) ListDiscounts(ctx context.Context, userID string) ([]domain.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discountsCalls++
	return append([]domain.Discount(nil), f.discounts...), nil
}

func (f *fakeStorefront) AddDiscount(ctx context.Context, userID, couponCode string) (*domain.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	applied := domain.Discount{ID: "d-" + couponCode, CouponCode: couponCode, DisplayName: couponCode}
	f.discounts = append(f.discounts, applied)
	return &applied, nil
}

func (f *fakeStorefront) RemoveDiscount(ctx context.Context, userID, discountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeDiscountErr != nil {
		return f.removeDiscountErr
	}
	kept := f.discounts[:0]
	for _, d := range f.discounts {
		if d.ID != discountID {
			kept = append(kept, d)
		}
	}
	f.discounts = kept
	return nil
}

func (f *fakeStorefront) GetBalance(ctx context.Context, userID string) (*domain.CustomerBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.balance
	return &b, nil
}

func (f *fakeStorefront) SetBalanceActive(ctx context.Context, userID string, active bool) (*domain.CustomerBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setBalanceCalls++
	f.lastBalanceValue = active
	f.balance.Active = active
	b := f.balance
	return &b, nil
}

func (f *fakeStorefront) GetOrderTotals(ctx context.Context, userID string) (*domain.OrderTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalsCalls++
	t := f.totals
	return &t, nil
}

func (f *fakeStorefront) GetMinimumOrderMessage(ctx context.Context, userID, date string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minimumMsg[date], nil
}

func (f *fakeStorefront) PlaceOrder(ctx context.Context, userID string, req domain.PlaceOrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placeOrderErr != nil {
		return "", f.placeOrderErr
	}
	f.placed = append(f.placed, req)
	return "order-1", nil
}

// fakeGateway is a TokenGateway recording tokenization and capture calls.
type fakeGateway struct {
	mu sync.Mutex

	instrumentErr error
	customerErr   error
	attachErr     error
	captureErr    error

	instrumentCalls int
	customerCalls   int
	attachCalls     int
	captureCalls    int

	lastCvv         string
	lastAddressID   string
	lastFingerprint string
}

func (g *fakeGateway) CreateInstrumentIdentifier(ctx context.Context, card domain.CardDetails) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instrumentCalls++
	if g.instrumentErr != nil {
		return "", g.instrumentErr
	}
	return "instr-1", nil
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, customer domain.Customer) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customerCalls++
	if g.customerErr != nil {
		return "", g.customerErr
	}
	return "cust-1", nil
}

func (g *fakeGateway) AttachPaymentInstrument(ctx context.Context, customerID, instrumentID string, card domain.CardDetails, billing domain.Address) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attachCalls++
	if g.attachErr != nil {
		return "", g.attachErr
	}
	return "pi-1", nil
}

func (g *fakeGateway) CapturePayment(ctx context.Context, card *domain.SavedCard, cvv string, amount float64, addressID, fingerprintSessionID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureCalls++
	g.lastCvv = cvv
	g.lastAddressID = addressID
	g.lastFingerprint = fingerprintSessionID
	if g.captureErr != nil {
		return "", g.captureErr
	}
	return "pay-ref-1", nil
}

func (g *fakeGateway) DeleteCustomer(ctx context.Context, customerID string) error {
	return nil
}

// fakeCardRepo records saved-card persistence.
type fakeCardRepo struct {
	mu        sync.Mutex
	created   []*domain.SavedCard
	createErr error
}

func (r *fakeCardRepo) Create(ctx context.Context, card *domain.SavedCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, card)
	return nil
}

func (r *fakeCardRepo) GetByUserID(ctx context.Context, userID string) (*domain.SavedCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.created) == 0 {
		return nil, nil
	}
	return r.created[len(r.created)-1], nil
}

func (r *fakeCardRepo) DeleteByCustomerID(ctx context.Context, serviceCustomerID string) error {
	return nil
}
