package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bloodbank/internal/infra/persistence/memory"
	"bloodbank/pkg/domain"
)

// Service is the caller surface of the engine. Every read-decide-write runs
// under a single lock covering units and recipients together, and every
// mutation is followed by a save of the collections it touched.
type Service struct {
	mu        sync.Mutex
	store     *EntityStore
	lifecycle *UnitLifecycleManager
	engine    AllocationEngine
	gateway   *Gateway
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	cascade   CascadePolicy
	observers []InventoryObserver
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the span factory.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithExpiryWarningDays sets the expiring-soon look-ahead in days.
func WithExpiryWarningDays(days int) Option {
	return func(s *Service) {
		s.lifecycle = NewUnitLifecycleManager(days)
	}
}

// WithCascadePolicy selects which units are removed with their donor.
func WithCascadePolicy(policy CascadePolicy) Option {
	return func(s *Service) {
		switch policy {
		case CascadeAll, CascadeInStockOnly:
			s.cascade = policy
		}
	}
}

// WithInventoryObserver registers a callback fed with stock and shortage
// after every mutation.
func WithInventoryObserver(observer InventoryObserver) Option {
	return func(s *Service) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// NewService constructs a service persisting through store. Call Load before
// serving to restore a previous snapshot.
func NewService(store SnapshotStore, opts ...Option) *Service {
	s := &Service{
		store:     NewEntityStore(),
		lifecycle: NewUnitLifecycleManager(domain.DefaultExpiryWarningDays),
		gateway:   NewGateway(store),
		clock:     ClockFunc(nil),
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
		cascade:   CascadeAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service whose snapshots live in process memory.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Close releases the snapshot store.
func (s *Service) Close() error {
	return s.gateway.Close()
}

// CascadePolicy reports the active donor deletion policy.
func (s *Service) CascadePolicy() CascadePolicy { return s.cascade }

// ExpiryWarningDays reports the expiring-soon look-ahead.
func (s *Service) ExpiryWarningDays() int { return s.lifecycle.WarningDays() }

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.clock.Now() }

func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		s.logger.Debug("operation failed", "operation", operation, "error", err)
	}
	return err
}

// persist saves the given collections. Failures are logged and wrapped in
// domain.ErrPersist; the in-memory state is kept as is and nothing retries.
func (s *Service) persist(ctx context.Context, collections ...Collection) error {
	if err := s.gateway.SaveAll(ctx, collections...); err != nil {
		s.logger.Error("persist failed", "kinds", kindsOf(collections), "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}
	return nil
}

// notify must be called with s.mu held.
func (s *Service) notify() {
	if len(s.observers) == 0 {
		return
	}
	stock := s.engine.StockByGroup(s.store.units)
	shortage := s.engine.ShortageByGroup(s.store.recipients)
	for _, o := range s.observers {
		o.InventoryChanged(stock, shortage)
	}
}

// Load restores all three collections, re-seeds the id counters, and sweeps
// expired units. A kind that fails to load starts empty with a warning. The
// returned error is non-nil only when saving the swept units failed.
func (s *Service) Load(ctx context.Context) error {
	return s.run(ctx, "load", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		loaded := make(map[EntityType]Collection, 3)
		for _, kind := range domain.EntityTypes() {
			c, err := s.gateway.LoadAll(ctx, kind)
			if err != nil {
				s.logger.Warn("snapshot load failed, starting empty", "kind", kind, "error", err)
				c, _ = decodeCollection(kind, []byte("[]"))
			}
			loaded[kind] = c
		}
		s.store.Replace(loaded[EntityDonor].Donors, loaded[EntityRecipient].Recipients, loaded[EntityUnit].Units)
		s.logger.Info("snapshot loaded",
			"donors", len(s.store.donors),
			"recipients", len(s.store.recipients),
			"units", len(s.store.units))

		_, err := s.sweepLocked(ctx)
		s.notify()
		return err
	})
}

func (s *Service) sweepLocked(ctx context.Context) ([]int, error) {
	swept := s.lifecycle.SweepExpired(s.store.units, s.clock.Now())
	if len(swept) == 0 {
		return nil, nil
	}
	s.logger.Info("expired units swept", "count", len(swept), "units", swept)
	return swept, s.persist(ctx, UnitCollection(s.store.units))
}

// AddDonor records a donation: the donor, then one unit of the donor's group.
// Before the unit is stored it is offered to the oldest pending recipient of
// the same group, so an auto-issued unit is never saved as in stock.
func (s *Service) AddDonor(ctx context.Context, info PersonInfo) (DonationResult, error) {
	var result DonationResult
	err := s.run(ctx, "add_donor", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		now := s.clock.Now()
		donor := s.store.AddDonor(info)
		unit := s.store.NewUnit(donor.ID, info.BloodGroup, now)
		served := s.engine.OnDonation(s.store, &unit, now)
		s.store.AppendUnit(unit)

		result = DonationResult{Donor: donor, Unit: unit.Clone(), AutoIssuedTo: served}
		collections := []Collection{DonorCollection(s.store.donors)}
		if served != nil {
			s.logger.Info("unit auto-issued", "unit", unit.ID, "recipient", served.ID, "group", unit.BloodGroup)
			collections = append(collections, RecipientCollection(s.store.recipients))
		} else {
			s.logger.Info("unit stocked", "unit", unit.ID, "donor", donor.ID, "group", unit.BloodGroup)
		}
		collections = append(collections, UnitCollection(s.store.units))
		defer s.notify()
		return s.persist(ctx, collections...)
	})
	return result, err
}

// DeleteDonorByID removes a donor and, per the cascade policy, their units.
// Found is false when no donor has the id; nothing changes in that case.
func (s *Service) DeleteDonorByID(ctx context.Context, id int) (DeleteResult, error) {
	var result DeleteResult
	err := s.run(ctx, "delete_donor", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if !s.store.RemoveByID(EntityDonor, id) {
			return nil
		}
		removed := s.store.RemoveUnitsByDonor(id, s.cascade)
		result = DeleteResult{Found: true, RemovedUnits: removed}
		s.logger.Info("donor deleted", "donor", id, "removed_units", removed, "cascade", string(s.cascade))

		collections := []Collection{DonorCollection(s.store.donors)}
		if removed > 0 {
			collections = append(collections, UnitCollection(s.store.units))
		}
		defer s.notify()
		return s.persist(ctx, collections...)
	})
	return result, err
}

// RequestUnit registers a transfusion request and serves it from stock when
// a unit of the same group is available, otherwise leaves it pending.
func (s *Service) RequestUnit(ctx context.Context, info PersonInfo, reason string) (RequestResult, error) {
	var result RequestResult
	err := s.run(ctx, "request_unit", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		recipient := s.store.NewRecipient(info, reason)
		result = s.engine.RequestUnit(s.store, recipient, s.clock.Now())
		defer s.notify()
		if result.Issued() {
			s.logger.Info("unit issued", "unit", result.Unit.ID, "recipient", recipient.ID, "group", recipient.BloodGroup)
			return s.persist(ctx, UnitCollection(s.store.units), RecipientCollection(s.store.recipients))
		}
		s.logger.Info("request queued", "recipient", recipient.ID, "group", recipient.BloodGroup)
		return s.persist(ctx, RecipientCollection(s.store.recipients))
	})
	return result, err
}

// DeleteRecipientByID removes a recipient. Units already issued to them keep
// their recipient id.
func (s *Service) DeleteRecipientByID(ctx context.Context, id int) (bool, error) {
	var found bool
	err := s.run(ctx, "delete_recipient", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if found = s.store.RemoveByID(EntityRecipient, id); !found {
			return nil
		}
		s.logger.Info("recipient deleted", "recipient", id)
		defer s.notify()
		return s.persist(ctx, RecipientCollection(s.store.recipients))
	})
	return found, err
}

// SweepExpired marks in-stock units past their expiry as EXPIRED and saves
// the units when anything changed. It returns the swept unit ids.
func (s *Service) SweepExpired(ctx context.Context) ([]int, error) {
	var swept []int
	err := s.run(ctx, "sweep_expired", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		var err error
		swept, err = s.sweepLocked(ctx)
		if len(swept) > 0 {
			s.notify()
		}
		return err
	})
	return swept, err
}

// ErrNotFound reports an unknown identifier.
type ErrNotFound struct {
	Entity EntityType
	ID     int
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// MarkUnitUsed issues a unit without a recipient. It fails with
// ErrNotFound for an unknown id and domain.ErrUnitNotInStock when the unit
// is already issued or expired.
func (s *Service) MarkUnitUsed(ctx context.Context, id int) (Result, error) {
	var res Result
	err := s.run(ctx, "mark_unit_used", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		unit := s.store.unit(id)
		if unit == nil {
			return ErrNotFound{Entity: EntityUnit, ID: id}
		}
		var err error
		if res, err = s.lifecycle.MarkUsed(unit); err != nil {
			return err
		}
		s.logger.Info("unit marked used", "unit", id)
		defer s.notify()
		return s.persist(ctx, UnitCollection(s.store.units))
	})
	return res, err
}

// StockByGroup counts in-stock units for every canonical group.
func (s *Service) StockByGroup() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.StockByGroup(s.store.units)
}

// ShortageByGroup counts pending recipients for every canonical group.
func (s *Service) ShortageByGroup() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ShortageByGroup(s.store.recipients)
}

// UnitsExpiringSoon lists in-stock units expiring inside the warning window.
func (s *Service) UnitsExpiringSoon() []BloodUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle.ExpiringSoon(s.store.units, s.clock.Now())
}

// WaitingList returns pending recipients oldest first.
func (s *Service) WaitingList() []Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.WaitingList(s.store.recipients)
}

// ListDonors returns every donor in insertion order.
func (s *Service) ListDonors() []Donor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Donors()
}

// ListRecipients returns every recipient in insertion order.
func (s *Service) ListRecipients() []Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Recipients()
}

// ListUnits returns every unit in insertion order.
func (s *Service) ListUnits() []BloodUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Units()
}

func (s *Service) FindDonor(id int) (Donor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.FindDonor(id)
}

func (s *Service) FindRecipient(id int) (Recipient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.FindRecipient(id)
}

func (s *Service) FindUnit(id int) (BloodUnit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.FindUnit(id)
}

// Snapshot copies all three collections at one instant.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Donors:     s.store.Donors(),
		Recipients: s.store.Recipients(),
		Units:      s.store.Units(),
	}
}
