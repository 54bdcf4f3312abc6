package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"food-delivery/api/broadcast"
	"food-delivery/api/config"
	"food-delivery/api/models"
	"food-delivery/api/payment"
	"food-delivery/api/repository"
)

// In-memory fakes for the repository interfaces, plus recording fakes for
// the publisher, the payment processor and the notifier. Every test builds a
// fresh set through newTestServer.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	// updatePaymentErr fails the next UpdatePaymentStatus call once,
	// simulating a transient store error.
	updatePaymentErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByTransactionID(_ context.Context, transactionID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TransactionID == transactionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) ListByDeliveryBoy(_ context.Context, deliveryBoyID string, status models.OrderStatus) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.DeliveryBoyID != deliveryBoyID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if o.Status != from {
		return nil, repository.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, id string, status models.PaymentStatus) (*models.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updatePaymentErr != nil {
		err := r.updatePaymentErr
		r.updatePaymentErr = nil
		return nil, false, err
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if o.PaymentStatus == status {
		cp := *o
		return &cp, false, nil
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, true, nil
}

func (r *fakeOrderRepo) SetTransactionID(_ context.Context, id, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.TransactionID = transactionID
	return nil
}

func (r *fakeOrderRepo) ClearDeliveryBoy(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.DeliveryBoyID = ""
	return nil
}

func (r *fakeOrderRepo) SetFeedback(_ context.Context, id, feedback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Feedback = feedback
	return nil
}

type fakeDeliveryBoyRepo struct {
	mu       sync.Mutex
	couriers map[string]*models.DeliveryBoy
}

func newFakeDeliveryBoyRepo() *fakeDeliveryBoyRepo {
	return &fakeDeliveryBoyRepo{couriers: make(map[string]*models.DeliveryBoy)}
}

func (r *fakeDeliveryBoyRepo) Create(_ context.Context, d *models.DeliveryBoy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.couriers {
		if existing.PhoneNumber == d.PhoneNumber {
			return repository.ErrDuplicate
		}
	}
	cp := *d
	r.couriers[d.ID] = &cp
	return nil
}

func (r *fakeDeliveryBoyRepo) GetByID(_ context.Context, id string) (*models.DeliveryBoy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.couriers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeliveryBoyRepo) GetByPhone(_ context.Context, phone string) (*models.DeliveryBoy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.couriers {
		if d.PhoneNumber == phone {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDeliveryBoyRepo) List(_ context.Context) ([]models.DeliveryBoy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.DeliveryBoy, 0, len(r.couriers))
	for _, d := range r.couriers {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDeliveryBoyRepo) ClaimOrder(_ context.Context, courierID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.couriers[courierID]
	if !ok {
		return repository.ErrNotFound
	}
	if d.Status != models.CourierStatusAvailable {
		return repository.ErrConflict
	}
	d.Status = models.CourierStatusBusy
	d.Orders = append(d.Orders, orderID)
	return nil
}

func (r *fakeDeliveryBoyRepo) ReleaseOrder(_ context.Context, courierID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.couriers[courierID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := d.Orders[:0]
	for _, id := range d.Orders {
		if id != orderID {
			kept = append(kept, id)
		}
	}
	d.Orders = kept
	d.Status = models.CourierStatusAvailable
	return nil
}

func (r *fakeDeliveryBoyRepo) UpdateStatus(_ context.Context, id string, status models.CourierStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.couriers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

func (r *fakeDeliveryBoyRepo) UpdateLocation(_ context.Context, id string, location models.GeoPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.couriers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Location = location
	return nil
}

type fakeRestaurantRepo struct {
	mu          sync.Mutex
	restaurants map[string]*models.Restaurant
}

func newFakeRestaurantRepo() *fakeRestaurantRepo {
	return &fakeRestaurantRepo{restaurants: make(map[string]*models.Restaurant)}
}

func (r *fakeRestaurantRepo) Create(_ context.Context, rest *models.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.restaurants {
		if existing.Name == rest.Name || existing.Phone == rest.Phone || existing.Email == rest.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *rest
	r.restaurants[rest.ID] = &cp
	return nil
}

func (r *fakeRestaurantRepo) GetByID(_ context.Context, id string) (*models.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.restaurants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rest
	return &cp, nil
}

func (r *fakeRestaurantRepo) List(_ context.Context) ([]models.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Restaurant, 0, len(r.restaurants))
	for _, rest := range r.restaurants {
		out = append(out, *rest)
	}
	return out, nil
}

func (r *fakeRestaurantRepo) Update(_ context.Context, rest *models.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.restaurants[rest.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *rest
	r.restaurants[rest.ID] = &cp
	return nil
}

func (r *fakeRestaurantRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.restaurants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.restaurants, id)
	return nil
}

type fakeMenuRepo struct {
	mu    sync.Mutex
	items map[string]*models.MenuItem
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{items: make(map[string]*models.MenuItem)}
}

func (r *fakeMenuRepo) Create(_ context.Context, item *models.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeMenuRepo) GetByID(_ context.Context, id string) (*models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeMenuRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]models.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MenuItem
	for _, item := range r.items {
		if item.RestaurantID == restaurantID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeMenuRepo) Update(_ context.Context, item *models.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeMenuRepo) Delete(_ context.Context, restaurantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.RestaurantID != restaurantID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*models.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePaymentRepo) ListByOrder(_ context.Context, orderID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) UpdateStatusByTransaction(_ context.Context, transactionID string, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionID == transactionID {
			p.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

// recordingPublisher captures broadcast events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *recordingPublisher) Publish(name string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, broadcast.Event{Name: name, Payload: payload})
}

func (p *recordingPublisher) all() []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]broadcast.Event, len(p.events))
	copy(out, p.events)
	return out
}

// fakeProcessor answers payment calls from canned state instead of talking
// to Stripe.
type fakeProcessor struct {
	mu         sync.Mutex
	nextID     string
	nextStatus string
	err        error
	calls      int
	lastAmount int64
}

func (p *fakeProcessor) CreateIntent(_ context.Context, amount int64, currency string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Intent{ID: p.nextID, ClientSecret: p.nextID + "_secret", Status: "requires_payment_method"}, nil
}

func (p *fakeProcessor) ConfirmPayment(_ context.Context, amount int64, currency, paymentMethodID string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastAmount = amount
	if p.err != nil {
		return nil, p.err
	}
	status := p.nextStatus
	if status == "" {
		status = "succeeded"
	}
	return &payment.Intent{ID: p.nextID, ClientSecret: p.nextID + "_secret", Status: status}, nil
}

func (p *fakeProcessor) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Intent{ID: id, Status: "succeeded"}, nil
}

type recordedPush struct {
	DeviceToken string
	Title       string
	Body        string
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushes []recordedPush
}

func (n *recordingNotifier) Push(deviceToken, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, recordedPush{deviceToken, title, body})
}

func (n *recordingNotifier) all() []recordedPush {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]recordedPush, len(n.pushes))
	copy(out, n.pushes)
	return out
}

// testEnv bundles a server with handles on all of its fakes.
type testEnv struct {
	server    *Server
	orders    *fakeOrderRepo
	couriers  *fakeDeliveryBoyRepo
	rests     *fakeRestaurantRepo
	menu      *fakeMenuRepo
	payments  *fakePaymentRepo
	publisher *recordingPublisher
	processor *fakeProcessor
	notifier  *recordingNotifier
}

const testWebhookSecret = "whsec_test_secret"

func newTestServer() *testEnv {
	env := &testEnv{
		orders:    newFakeOrderRepo(),
		couriers:  newFakeDeliveryBoyRepo(),
		rests:     newFakeRestaurantRepo(),
		menu:      newFakeMenuRepo(),
		payments:  newFakePaymentRepo(),
		publisher: &recordingPublisher{},
		processor: &fakeProcessor{nextID: "pi_test_1"},
		notifier:  &recordingNotifier{},
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		JWT: config.JWTConfig{
			SecretKey: "test-secret",
			TokenTTL:  time.Hour,
		},
		Stripe: config.StripeConfig{
			WebhookSecret: testWebhookSecret,
		},
		Env: "test",
	}

	env.server = NewServer(cfg, Deps{
		Store: &repository.Store{
			Orders:       env.orders,
			DeliveryBoys: env.couriers,
			Restaurants:  env.rests,
			MenuItems:    env.menu,
			Payments:     env.payments,
		},
		Hub:       broadcast.NewHub(),
		Publisher: env.publisher,
		Processor: env.processor,
		Notifier:  env.notifier,
	})
	return env
}
