package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridsmith/energyplanner/nordpool"
	timeutils "github.com/gridsmith/energyplanner/time_utils"
)

// Document keys in the persistent store.
const (
	DocumentValues      = "values"
	DocumentConfig      = "config"
	DocumentManualSlots = "manual_slots"
)

// PriceSource is the day-ahead price provider. The nordpool client satisfies
// it; tests substitute a canned source.
type PriceSource interface {
	FetchRange(ctx context.Context, currency, area string, now time.Time, includeTomorrow bool) (yesterday, today, tomorrow []nordpool.PricePoint, err error)
	Snapshot() []nordpool.CachedSeries
	Restore(series []nordpool.CachedSeries)
}

// DocumentStore persists named JSON documents.
type DocumentStore interface {
	Load(key string, v any) error
	Save(key string, v any) error
}

// Notifier is told when a batch of document writes has finished, so bound
// entities can refresh. Calls arrive with the planner mutex held; they must
// not call back into the planner.
type Notifier interface {
	UpdateValues()
	UpdateConfig()
}

// Config holds the per-installation planning settings. Times of day are
// "HH:MM" strings parsed in the delivery area's timezone at run time.
type Config struct {
	Area     string   `json:"area"`
	Currency string   `json:"currency"`
	Strategy Strategy `json:"strategy"`

	ChargeHours    float64 `json:"charge_hours"`
	DischargeHours float64 `json:"discharge_hours"`

	EfficiencyFactor float64 `json:"efficiency_factor"`

	BatteryMaxSoc      int `json:"battery_max_soc"`
	BatteryShutdownSoc int `json:"battery_shutdown_soc"`

	EarliestChargeTime    string `json:"earliest_charge_time"`
	EarliestDischargeTime string `json:"earliest_discharge_time"`

	CheapState     SlotState `json:"cheap_state"`
	ExpensiveState SlotState `json:"expensive_state"`
	InbetweenState SlotState `json:"inbetween_state"`

	HistoryEntityID string `json:"history_entity_id,omitempty"`

	// PlanTime is the local time of day the daily planning run fires.
	PlanTime string `json:"plan_time"`
}

// missing reports which required settings the config lacks.
func (c Config) missing() []string {
	var fields []string
	if c.Area == "" {
		fields = append(fields, "area")
	}
	if c.Currency == "" {
		fields = append(fields, "currency")
	}
	if c.ChargeHours <= 0 {
		fields = append(fields, "charge_hours")
	}
	if c.DischargeHours <= 0 {
		fields = append(fields, "discharge_hours")
	}
	if c.BatteryMaxSoc <= 0 {
		fields = append(fields, "battery_max_soc")
	}
	return fields
}

// PlanSnapshot is the immutable result of one planning run, published for
// mirroring.
type PlanSnapshot struct {
	RunID uuid.UUID
	Time  time.Time
	Slots []Slot
}

// Planner owns the slot store and runs the planning cycle. One mutex
// serializes every mutation: planning runs, service calls and the periodic
// expiry tick.
type Planner struct {
	mu sync.Mutex

	config Config
	store  *SlotStore
	manual []ManualSlotEntry

	prices    PriceSource
	documents DocumentStore
	notifier  Notifier
	history   HistoryStore

	// Published receives a snapshot after every successful planning run.
	// Sends are non-blocking: a slow or absent consumer never stalls a run.
	Published chan PlanSnapshot

	runRequests chan struct{}

	now    func() time.Time
	logger *slog.Logger
}

func New(config Config, prices PriceSource, documents DocumentStore, notifier Notifier, history HistoryStore, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		config:      config,
		store:       NewSlotStore(),
		prices:      prices,
		documents:   documents,
		notifier:    notifier,
		history:     history,
		Published:   make(chan PlanSnapshot, 4),
		runRequests: make(chan struct{}, 1),
		now:         time.Now,
		logger:      logger.With("component", "planner"),
	}
}

// LoadState restores the slot store, price cache and manual entries from the
// document store. Missing documents are not an error: a first boot starts
// from an empty schedule.
func (p *Planner) LoadState() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var values ValuesDocument
	if err := p.documents.Load(DocumentValues, &values); err != nil {
		return fmt.Errorf("load values document: %w", err)
	}
	if len(values.Slots) > 0 {
		decodeSlots(p.store, values.Slots)
	}
	if len(values.PriceCache) > 0 && p.prices != nil {
		p.prices.Restore(values.PriceCache)
	}

	var manual ManualSlotsDocument
	if err := p.documents.Load(DocumentManualSlots, &manual); err != nil {
		return fmt.Errorf("load manual slots document: %w", err)
	}
	p.manual = manual.Entries

	var stored Config
	if err := p.documents.Load(DocumentConfig, &stored); err != nil {
		return fmt.Errorf("load config document: %w", err)
	}
	if stored.Area != "" {
		p.config = stored
	}
	return nil
}

// RunPlanner executes one full planning cycle: fetch prices, rebuild the
// schedule with the configured strategy, fold manual slots back in, restore
// user disables, then notify, publish and persist. On any error before the
// store is reset the previous schedule is left untouched.
func (p *Planner) RunPlanner(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runPlannerLocked(ctx)
}

func (p *Planner) runPlannerLocked(ctx context.Context) error {
	if fields := p.config.missing(); len(fields) > 0 {
		return fmt.Errorf("%w: %v", ErrConfigurationMissing, fields)
	}
	location, err := nordpool.LocationFor(p.config.Area)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTimezoneResolution, err)
	}
	if !p.config.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrValidation, p.config.Strategy)
	}

	if p.config.Strategy == StrategyDynamic {
		return p.runDynamic(ctx)
	}

	now := p.now().In(location)
	yesterday, today, tomorrow, err := p.prices.FetchRange(ctx, p.config.Currency, p.config.Area, now, true)
	if err != nil {
		// the previous schedule is still valid; do not touch the store
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	disabled := storeDisableState(p.store)
	p.store.Reset()

	todayCfg, err := p.dayConfigFor(now, location)
	if err != nil {
		return err
	}
	todayPoints := append(append([]nordpool.PricePoint{}, yesterday...), today...)
	if p.config.Strategy == StrategyPricePeak {
		// the strategy pairs charge and discharge windows across midnight,
		// so it plans today and tomorrow in a single pass
		todayPoints = append(todayPoints, tomorrow...)
	}
	if p.config.Strategy == StrategyBasic && len(tomorrow) > 0 {
		// tomorrow's charge window opens at earliest_charge this evening;
		// today's plan stops there so the appended slots stay chronological
		boundary := todayCfg.earliestCharge.OnSameDate(todayCfg.startOfDay)
		if boundary.After(todayCfg.startOfDay) && boundary.Before(todayCfg.endOfDay) {
			todayCfg.endOfDay = boundary
		}
	}
	p.writeDay(p.planDay(todayPoints, todayCfg), now)

	if len(tomorrow) > 0 && p.config.Strategy != StrategyPricePeak {
		tomorrowCfg, err := p.dayConfigFor(now.AddDate(0, 0, 1), location)
		if err != nil {
			return err
		}
		p.writeDay(p.planDay(append(append([]nordpool.PricePoint{}, today...), tomorrow...), tomorrowCfg), now)
	}

	addManualSlots(p.store, p.manual, p.config.BatteryMaxSoc, p.config.BatteryShutdownSoc)
	restoreDisableState(p.store, disabled)

	p.notifyValues()
	p.publishLocked()
	return p.persistLocked()
}

// dayConfigFor assembles the per-day planning inputs for the local calendar
// day containing t.
func (p *Planner) dayConfigFor(t time.Time, location *time.Location) (dayConfig, error) {
	earliestCharge, err := timeutils.ParseClockTime(p.config.EarliestChargeTime, location)
	if err != nil {
		return dayConfig{}, fmt.Errorf("%w: earliest_charge_time: %v", ErrValidation, err)
	}
	earliestDischarge, err := timeutils.ParseClockTime(p.config.EarliestDischargeTime, location)
	if err != nil {
		return dayConfig{}, fmt.Errorf("%w: earliest_discharge_time: %v", ErrValidation, err)
	}

	cfg := dayConfig{
		startOfDay:        timeutils.StartOfDay(t, location),
		endOfDay:          timeutils.StartOfNextDay(t, location),
		chargeHours:       p.config.ChargeHours,
		dischargeHours:    p.config.DischargeHours,
		earliestCharge:    earliestCharge,
		earliestDischarge: earliestDischarge,
		maxSoc:            p.config.BatteryMaxSoc,
		shutdownSoc:       p.config.BatteryShutdownSoc,
		efficiencyFactor:  p.config.EfficiencyFactor,
		cheapState:        p.config.CheapState,
		expensiveState:    p.config.ExpensiveState,
		inbetweenState:    p.config.InbetweenState,
	}
	if cfg.efficiencyFactor <= 0 {
		cfg.efficiencyFactor = 1
	}
	if cfg.cheapState == "" {
		cfg.cheapState = StateCharge
	}
	if cfg.expensiveState == "" {
		cfg.expensiveState = StateDischarge
	}
	if cfg.inbetweenState == "" {
		cfg.inbetweenState = StatePause
	}
	return cfg, nil
}

// planDay dispatches to the configured strategy. For the price-peak strategy
// the passed points already span today and (when available) tomorrow, and the
// planning window is widened to cover all of them in a single pass, since the
// strategy pairs charge and discharge windows across midnight.
func (p *Planner) planDay(points []nordpool.PricePoint, cfg dayConfig) []ScheduleSegment {
	switch p.config.Strategy {
	case StrategyCheapestHours:
		var inWindow []nordpool.PricePoint
		for _, point := range points {
			if !point.Start.Before(cfg.startOfDay) && point.Start.Before(cfg.endOfDay) {
				inWindow = append(inWindow, point)
			}
		}
		return planCheapestHoursDay(inWindow, cfg)
	case StrategyPricePeak:
		var fromNow []nordpool.PricePoint
		for _, point := range points {
			if !point.Start.Before(cfg.startOfDay) {
				fromNow = append(fromNow, point)
			}
		}
		if len(fromNow) > 0 {
			cfg.endOfDay = fromNow[len(fromNow)-1].End
		}
		return planPricePeakDay(fromNow, cfg)
	default:
		return planBasicDay(points, cfg)
	}
}

// writeDay appends the still-relevant segments of a planned day to the store.
func (p *Planner) writeDay(segments []ScheduleSegment, now time.Time) {
	segments = dropPastSegments(segments, now)
	if len(segments) == 0 {
		return
	}
	p.store.WriteSegments(p.store.FirstFreeIndex(), segments)
}

// AddManualSlot validates and records a manual override window, folds it
// into the current schedule immediately and persists. Invalid input returns
// ErrValidation without mutating anything.
func (p *Planner) AddManualSlot(entry ManualSlotEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !entry.End.After(entry.Start) {
		return fmt.Errorf("%w: manual slot end %s is not after start %s", ErrValidation, entry.End, entry.Start)
	}
	if !entry.State.IsManual() {
		return fmt.Errorf("%w: state %q cannot be set manually", ErrValidation, entry.State)
	}

	p.manual = append(p.manual, entry)
	addManualSlots(p.store, []ManualSlotEntry{entry}, p.config.BatteryMaxSoc, p.config.BatteryShutdownSoc)

	p.notifyValues()
	return p.persistLocked()
}

// ClearManualSlots discards every manual override. The schedule itself is
// untouched until the next planning run rebuilds it without overrides.
func (p *Planner) ClearManualSlots() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.manual = nil
	return p.persistLocked()
}

// ManualSlots returns a copy of the recorded manual entries.
func (p *Planner) ManualSlots() []ManualSlotEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ManualSlotEntry(nil), p.manual...)
}

// RequestRun queues an on-demand planning run for the Run loop. A run
// already pending is not queued twice.
func (p *Planner) RequestRun() {
	select {
	case p.runRequests <- struct{}{}:
	default:
	}
}

// ClearPassedSlots advances the schedule past expired entries: when slot 2's
// start time has passed, everything shifts one position toward the front, so
// position 0 always holds the action in effect. Manual entries that ended in
// the past are pruned at the same time.
func (p *Planner) ClearPassedSlots() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	changed := false
	for p.store.AdvanceIfExpired(now) {
		changed = true
	}

	kept := p.manual[:0]
	for _, entry := range p.manual {
		if entry.End.After(now) {
			kept = append(kept, entry)
		} else {
			changed = true
		}
	}
	p.manual = kept

	if !changed {
		return nil
	}
	p.notifyValues()
	return p.persistLocked()
}

// Run drives the planner until the context is cancelled: a once-a-minute
// expiry tick, the daily planning trigger and on-demand run requests.
func (p *Planner) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	planTimer := time.NewTimer(p.untilNextPlan())
	defer planTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ClearPassedSlots(); err != nil {
				p.logger.Error("clearing passed slots failed", "error", err)
			}
		case <-planTimer.C:
			p.runAndLog(ctx)
			planTimer.Reset(p.untilNextPlan())
		case <-p.runRequests:
			p.runAndLog(ctx)
		}
	}
}

func (p *Planner) runAndLog(ctx context.Context) {
	if err := p.RunPlanner(ctx); err != nil {
		p.logger.Error("planning run failed",
			"area", p.config.Area,
			"strategy", p.config.Strategy,
			"date", p.now().Format("2006-01-02"),
			"error", err)
		return
	}
	p.logger.Info("planning run complete", "area", p.config.Area, "strategy", p.config.Strategy)
}

// untilNextPlan returns the duration until the next daily planning trigger.
// An unset or unparseable plan time defaults to 14:00, shortly after the
// day-ahead auction results publish.
func (p *Planner) untilNextPlan() time.Duration {
	location := time.Local
	if loc, err := nordpool.LocationFor(p.config.Area); err == nil {
		location = loc
	}
	clock, err := timeutils.ParseClockTime(p.config.PlanTime, location)
	if err != nil {
		clock = timeutils.ClockTime{Hour: 14, Location: location}
	}

	now := p.now().In(location)
	next := clock.OnSameDate(now)
	if !next.After(now) {
		next = clock.OnSameDate(now.AddDate(0, 0, 1))
	}
	return next.Sub(now)
}

func (p *Planner) notifyValues() {
	if p.notifier != nil {
		p.notifier.UpdateValues()
	}
}

// persistLocked writes the values and manual_slots documents. Callers hold
// the mutex.
func (p *Planner) persistLocked() error {
	values := ValuesDocument{Slots: encodeSlots(p.store)}
	if p.prices != nil {
		values.PriceCache = p.prices.Snapshot()
	}
	if err := p.documents.Save(DocumentValues, values); err != nil {
		return fmt.Errorf("save values document: %w", err)
	}
	if err := p.documents.Save(DocumentManualSlots, ManualSlotsDocument{Entries: p.manual}); err != nil {
		return fmt.Errorf("save manual slots document: %w", err)
	}
	return nil
}

func (p *Planner) publishLocked() {
	snapshot := PlanSnapshot{
		RunID: uuid.New(),
		Time:  p.now(),
		Slots: p.store.Slots(),
	}
	select {
	case p.Published <- snapshot:
	default:
		p.logger.Warn("plan snapshot dropped, publish channel full")
	}
}

// SlotAt returns the slot at the given position.
func (p *Planner) SlotAt(i int) Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.At(i)
}

// SetSlotStart overwrites one slot's start time, for the bound datetime
// entity of each position.
func (p *Planner) SetSlotStart(i int, start time.Time) error {
	return p.mutateSlot(i, func(slot *Slot) { slot.Start = start })
}

// SetSlotState overwrites one slot's state. Only schedulable states and
// "off" are accepted.
func (p *Planner) SetSlotState(i int, state SlotState) error {
	if !state.IsManual() && state != StateOff {
		return fmt.Errorf("%w: unknown slot state %q", ErrValidation, state)
	}
	return p.mutateSlot(i, func(slot *Slot) { slot.State = state })
}

// SetSlotActive flips one slot's active switch.
func (p *Planner) SetSlotActive(i int, active bool) error {
	return p.mutateSlot(i, func(slot *Slot) { slot.Active = active })
}

// SetSlotSoc overwrites one slot's target state of charge.
func (p *Planner) SetSlotSoc(i int, soc int) error {
	if soc < 0 || soc > 100 {
		return fmt.Errorf("%w: soc %d out of range", ErrValidation, soc)
	}
	return p.mutateSlot(i, func(slot *Slot) { slot.Soc = soc })
}

func (p *Planner) mutateSlot(i int, mutate func(*Slot)) error {
	if i < 0 || i >= NumSlots {
		return fmt.Errorf("%w: slot index %d out of range", ErrValidation, i)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	slot := p.store.At(i)
	mutate(&slot)
	p.store.SetAt(i, slot)

	p.notifyValues()
	return p.persistLocked()
}

// Strategy returns the active planning strategy.
func (p *Planner) Strategy() Strategy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Strategy
}

// SetStrategy switches the planning strategy. The new strategy takes effect
// on the next planning run.
func (p *Planner) SetStrategy(s Strategy) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrValidation, s)
	}
	return p.updateConfig(func(c *Config) { c.Strategy = s })
}

// Configuration returns a copy of the current planner settings.
func (p *Planner) Configuration() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

func (p *Planner) SetChargeHours(hours float64) error {
	if hours < 0 || hours > 24 {
		return fmt.Errorf("%w: charge hours %v out of range", ErrValidation, hours)
	}
	return p.updateConfig(func(c *Config) { c.ChargeHours = hours })
}

func (p *Planner) SetDischargeHours(hours float64) error {
	if hours < 0 || hours > 24 {
		return fmt.Errorf("%w: discharge hours %v out of range", ErrValidation, hours)
	}
	return p.updateConfig(func(c *Config) { c.DischargeHours = hours })
}

func (p *Planner) SetBatteryMaxSoc(soc int) error {
	if soc < 1 || soc > 100 {
		return fmt.Errorf("%w: max soc %d out of range", ErrValidation, soc)
	}
	return p.updateConfig(func(c *Config) { c.BatteryMaxSoc = soc })
}

func (p *Planner) SetBatteryShutdownSoc(soc int) error {
	if soc < 0 || soc > 100 {
		return fmt.Errorf("%w: shutdown soc %d out of range", ErrValidation, soc)
	}
	return p.updateConfig(func(c *Config) { c.BatteryShutdownSoc = soc })
}

func (p *Planner) SetEarliestChargeTime(clock string) error {
	if _, err := timeutils.ParseClockTime(clock, time.UTC); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return p.updateConfig(func(c *Config) { c.EarliestChargeTime = clock })
}

func (p *Planner) SetEarliestDischargeTime(clock string) error {
	if _, err := timeutils.ParseClockTime(clock, time.UTC); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return p.updateConfig(func(c *Config) { c.EarliestDischargeTime = clock })
}

// updateConfig applies a config mutation, persists the config document and
// signals bound config fields.
func (p *Planner) updateConfig(mutate func(*Config)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	mutate(&p.config)
	if err := p.documents.Save(DocumentConfig, p.config); err != nil {
		return fmt.Errorf("save config document: %w", err)
	}
	if p.notifier != nil {
		p.notifier.UpdateConfig()
	}
	return nil
}

// Snapshot returns a copy of the current slot array.
func (p *Planner) Snapshot() []Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Slots()
}
