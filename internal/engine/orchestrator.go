package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/clock"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/telemetry"
)

// TableCatalog supplies the static-per-call table snapshot.
type TableCatalog interface {
	ActiveTables(ctx context.Context, restaurantID string) ([]domain.Table, domain.Adjacency, error)
}

// BookingStore is the external booking collaborator.
type BookingStore interface {
	GetBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) error
	// ListUnassigned returns bookings in blocking statuses within the day
	// window that have no table allocation yet.
	ListUnassigned(ctx context.Context, restaurantID string, day domain.Window) ([]domain.Booking, error)
	// ListBlockingForDay returns all bookings in blocking statuses for the
	// day, fed to the future-conflict lookahead.
	ListBlockingForDay(ctx context.Context, restaurantID string, day domain.Window) ([]domain.Booking, error)
}

// AllocationSnapshotStore reads the conflict snapshot for one attempt.
type AllocationSnapshotStore interface {
	AllocationsInWindow(ctx context.Context, restaurantID string, day domain.Window) ([]domain.Allocation, error)
	ActiveHolds(ctx context.Context, restaurantID string, now time.Time) ([]domain.Hold, error)
}

// SettingsStore resolves per-restaurant strategic weight overrides; absence
// of an override falls back to the default profile.
type SettingsStore interface {
	StrategicWeights(ctx context.Context, restaurantID string) (domain.StrategicWeights, error)
}

// Orchestrator drives the generate/score/hold/commit pipeline across the
// strategy ladder, inline at booking creation and as the background sweep.
type Orchestrator struct {
	catalog   TableCatalog
	bookings  BookingStore
	snapshots AllocationSnapshotStore
	settings  SettingsStore
	schedule  ScheduleService
	holds     *HoldService
	commits   *CommitService
	recorder  telemetry.Recorder
	clock     clock.Clock
	cfg       domain.StrategyConfig
	retry     RetryPolicy
	demand    *DemandProfile
	logger    *slog.Logger
	createdBy string
	sleep     func(ctx context.Context, d time.Duration) error
}

type OrchestratorDeps struct {
	Catalog   TableCatalog
	Bookings  BookingStore
	Snapshots AllocationSnapshotStore
	Settings  SettingsStore
	Schedule  ScheduleService
	Holds     *HoldService
	Commits   *CommitService
	Recorder  telemetry.Recorder
	Clock     clock.Clock
	// Config is the explicit strategy configuration; zero values take
	// defaults. Never ambient process state.
	Config domain.StrategyConfig
	Retry  RetryPolicy
	Demand *DemandProfile
	Logger *slog.Logger
	// CreatedBy labels holds created by this orchestrator.
	CreatedBy string
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}
	retry := deps.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}
	createdBy := deps.CreatedBy
	if createdBy == "" {
		createdBy = "auto-assign"
	}
	return &Orchestrator{
		catalog:   deps.Catalog,
		bookings:  deps.Bookings,
		snapshots: deps.Snapshots,
		settings:  deps.Settings,
		schedule:  deps.Schedule,
		holds:     deps.Holds,
		commits:   deps.Commits,
		recorder:  recorder,
		clock:     deps.Clock,
		cfg:       deps.Config,
		retry:     retry,
		demand:    deps.Demand,
		logger:    logger,
		createdBy: createdBy,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Diagnostics is the inspectable trail left for a booking the orchestrator
// could not place, supporting manual ops investigation.
type Diagnostics struct {
	LastStrategy domain.Strategy
	Selected     *domain.Candidate
	Alternates   []domain.Candidate
	Skipped      []SkippedCandidate
	Allocations  []domain.Allocation
	Holds        []domain.Hold
}

// AssignResult reports one booking's pass through the pipeline.
type AssignResult struct {
	BookingID   string
	Assigned    bool
	HoldID      string
	TableIDs    []string
	Allocations []domain.Allocation
	Strategy    domain.Strategy
	Reason      string
	Diagnostics *Diagnostics
}

type snapshot struct {
	tables      []domain.Table
	adjacency   domain.Adjacency
	allocations []domain.Allocation
	holds       []domain.Hold
	future      []domain.Booking
}

// AssignBooking runs the strategy ladder for one booking. Validation errors
// surface immediately; capacity, conflict, and stale-hold errors are absorbed
// by the ladder and only surface as an unassigned result with diagnostics
// once every strategy is exhausted.
func (o *Orchestrator) AssignBooking(ctx context.Context, bookingID string) (AssignResult, error) {
	booking, err := o.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return AssignResult{BookingID: bookingID}, err
	}
	result := AssignResult{BookingID: booking.ID}

	if !booking.Status.BlocksAssignment() {
		result.Reason = fmt.Sprintf("booking status %q is not awaiting assignment", booking.Status)
		return result, nil
	}
	if booking.PartySize <= 0 {
		return result, domain.ErrInvalidPartySize
	}

	schedule, err := o.schedule.RestaurantSchedule(ctx, booking.RestaurantID)
	if err != nil {
		return result, fmt.Errorf("load schedule: %w", err)
	}
	window, err := ResolveWindow(booking, schedule)
	if err != nil {
		return result, err
	}

	weights, err := o.settings.StrategicWeights(ctx, booking.RestaurantID)
	if err != nil {
		o.logger.Warn("strategic settings unavailable, using defaults",
			"restaurant_id", booking.RestaurantID, "error", err)
		weights = domain.DefaultStrategicWeights()
	}

	dayStart, dayEnd := DayBounds(window.Start, schedule)
	day := domain.Window{Start: dayStart, End: dayEnd}

	avoid := make(map[string]bool)
	conflictRetries := 0
	var lastDiag *Diagnostics

	for _, strategy := range o.cfg.Ladder() {
		if ctx.Err() != nil {
			break
		}

		snap, err := o.loadSnapshot(ctx, booking, day, schedule)
		if err != nil {
			return result, err
		}
		now := o.clock.Now()

		generated := GenerateCandidates(GenerateInput{
			Tables:      snap.tables,
			Adjacency:   snap.adjacency,
			PartySize:   booking.PartySize,
			Preference:  booking.SeatingPreference,
			Window:      window,
			Strategy:    strategy,
			Config:      o.cfg,
			Avoid:       avoid,
			Allocations: snap.allocations,
			Holds:       snap.holds,
			Now:         now,
		})
		o.recordSkipped(ctx, booking, strategy, generated.Skipped)

		lastDiag = &Diagnostics{
			LastStrategy: strategy,
			Skipped:      generated.Skipped,
			Allocations:  snap.allocations,
			Holds:        snap.holds,
		}

		if len(generated.Candidates) == 0 {
			continue
		}

		scored := ScoreCandidates(ScoreInput{
			Candidates:      generated.Candidates,
			Weights:         weights,
			Demand:          o.demand,
			BookingStart:    window.Start,
			CandidateWindow: window,
			FutureBookings:  futureOf(booking, window, snap.future),
			Tables:          snap.tables,
			Allocations:     snap.allocations,
			Holds:           snap.holds,
			Now:             now,
			MaxTables:       o.cfg.MaxTables,
		})
		lastDiag.Selected = &scored[0]
		lastDiag.Alternates = scored[1:]

		placed, retriesLeft, err := o.placeCandidates(ctx, booking, window, strategy, scored, avoid, conflictRetries)
		conflictRetries = retriesLeft
		if err != nil {
			return result, err
		}
		if placed != nil {
			o.recordAlternates(ctx, booking, strategy, scored[1:])
			return *placed, nil
		}
		if conflictRetries >= o.retry.attempts() {
			break
		}
	}

	// Exhausted: booking stays pending with a reason; never half-allocated.
	if booking.Status == domain.BookingPending {
		if err := o.bookings.UpdateBookingStatus(ctx, booking.ID, domain.BookingPendingAllocation); err != nil {
			o.logger.Warn("failed to park booking as pending_allocation",
				"booking_id", booking.ID, "error", err)
		}
	}
	result.Reason = exhaustedReason(conflictRetries, o.retry.attempts())
	result.Diagnostics = lastDiag
	return result, nil
}

func exhaustedReason(retries, budget int) string {
	if retries >= budget {
		return "conflict retry budget exhausted"
	}
	return domain.ErrNoCapacity.Error()
}

// placeCandidates tries the scored candidates in order under the retry
// budget: hold, then confirm. Conflicting tables join the avoid set so the
// next pass does not retry them. Returns a non-nil result on success.
func (o *Orchestrator) placeCandidates(
	ctx context.Context,
	booking domain.Booking,
	window domain.Window,
	strategy domain.Strategy,
	candidates []domain.Candidate,
	avoid map[string]bool,
	retries int,
) (*AssignResult, int, error) {
	for i := range candidates {
		candidate := candidates[i]
		if retries >= o.retry.attempts() || ctx.Err() != nil {
			return nil, retries, nil
		}

		zoneID := ""
		if len(candidate.Tables) > 0 {
			zoneID = candidate.Tables[0].ZoneID
		}
		hold, err := o.holds.CreateHold(ctx, CreateHoldInput{
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			ZoneID:       zoneID,
			TableIDs:     candidate.TableIDs(),
			Window:       window,
			TTL:          o.cfg.HoldTTL,
			CreatedBy:    o.createdBy,
		})
		if err != nil {
			if errors.Is(err, domain.ErrHoldConflict) {
				retries++
				for _, id := range candidate.TableIDs() {
					avoid[id] = true
				}
				o.record(ctx, telemetry.Event{
					Kind:      telemetry.EventRejection,
					BookingID: booking.ID,
					TableIDs:  candidate.TableIDs(),
					Rejection: rejectionPtr(domain.TimeConflictRejection(candidate.TableIDs(), nil, nil)),
					Strategy:  &strategy,
				})
				if sleepErr := o.sleep(ctx, o.retry.delay(retries)); sleepErr != nil {
					return nil, retries, nil
				}
				continue
			}
			return nil, retries, err
		}
		o.record(ctx, telemetry.Event{
			Kind:         telemetry.EventHoldCreated,
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			HoldID:       hold.ID,
			TableIDs:     hold.TableIDs,
		})

		confirmed, err := o.commits.ConfirmHold(ctx, ConfirmHoldInput{
			HoldID:         hold.ID,
			BookingID:      booking.ID,
			IdempotencyKey: fmt.Sprintf("auto:%s:%s", booking.ID, hold.ID),
		})
		if err != nil {
			if releaseErr := o.holds.Release(ctx, hold.ID); releaseErr != nil {
				o.logger.Warn("failed to release hold after confirm failure",
					"hold_id", hold.ID, "error", releaseErr)
			}
			o.record(ctx, telemetry.Event{
				Kind:      telemetry.EventHoldReleased,
				BookingID: booking.ID,
				HoldID:    hold.ID,
			})
			if domain.RetryableConflict(err) {
				retries++
				if sleepErr := o.sleep(ctx, o.retry.delay(retries)); sleepErr != nil {
					return nil, retries, nil
				}
				continue
			}
			return nil, retries, err
		}

		o.record(ctx, telemetry.Event{
			Kind:         telemetry.EventHoldConfirmed,
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			HoldID:       hold.ID,
			TableIDs:     hold.TableIDs,
		})
		o.record(ctx, telemetry.Event{
			Kind:         telemetry.EventAssignment,
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			TableIDs:     hold.TableIDs,
		})
		return &AssignResult{
			BookingID:   booking.ID,
			Assigned:    true,
			HoldID:      hold.ID,
			TableIDs:    hold.TableIDs,
			Allocations: confirmed.Allocations,
			Strategy:    strategy,
		}, retries, nil
	}
	return nil, retries, nil
}

func (o *Orchestrator) loadSnapshot(ctx context.Context, booking domain.Booking, day domain.Window, schedule Schedule) (snapshot, error) {
	tables, adjacency, err := o.catalog.ActiveTables(ctx, booking.RestaurantID)
	if err != nil {
		return snapshot{}, fmt.Errorf("load tables: %w", err)
	}
	allocations, err := o.snapshots.AllocationsInWindow(ctx, booking.RestaurantID, day)
	if err != nil {
		return snapshot{}, fmt.Errorf("load allocations: %w", err)
	}
	holds, err := o.snapshots.ActiveHolds(ctx, booking.RestaurantID, o.clock.Now())
	if err != nil {
		return snapshot{}, fmt.Errorf("load holds: %w", err)
	}
	future, err := o.bookings.ListBlockingForDay(ctx, booking.RestaurantID, day)
	if err != nil {
		return snapshot{}, fmt.Errorf("load day bookings: %w", err)
	}
	for i := range future {
		if future[i].EndAt.IsZero() && !future[i].StartAt.IsZero() {
			future[i].EndAt = future[i].StartAt.Add(schedule.Duration(future[i].PartySize))
		}
	}
	return snapshot{
		tables:      tables,
		adjacency:   adjacency,
		allocations: allocations,
		holds:       holds,
		future:      future,
	}, nil
}

// futureOf filters the day's bookings down to others starting later than the
// booking being placed.
func futureOf(booking domain.Booking, window domain.Window, day []domain.Booking) []domain.Booking {
	var out []domain.Booking
	for _, b := range day {
		if b.ID == booking.ID || !b.StartAt.After(window.Start) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// SweepReport summarizes one background pass over unassigned bookings.
type SweepReport struct {
	RestaurantID string
	Day          domain.Window
	Results      []AssignResult
	Assigned     int
	Unassigned   int
	Failed       int
}

// Sweep applies the same strategy ladder to every booking in a blocking
// status for the date that has no table allocation yet. One booking's
// failure never aborts the rest; unresolved bookings carry full diagnostics.
func (o *Orchestrator) Sweep(ctx context.Context, restaurantID string, date time.Time) (SweepReport, error) {
	schedule, err := o.schedule.RestaurantSchedule(ctx, restaurantID)
	if err != nil {
		return SweepReport{}, fmt.Errorf("load schedule: %w", err)
	}
	dayStart, dayEnd := DayBounds(date, schedule)
	day := domain.Window{Start: dayStart, End: dayEnd}

	pending, err := o.bookings.ListUnassigned(ctx, restaurantID, day)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list unassigned bookings: %w", err)
	}

	report := SweepReport{RestaurantID: restaurantID, Day: day}
	for _, booking := range pending {
		if ctx.Err() != nil {
			break
		}
		result, err := o.AssignBooking(ctx, booking.ID)
		if err != nil {
			// Isolate per booking: record and move on.
			o.logger.Error("sweep: booking assignment failed",
				"booking_id", booking.ID, "error", err)
			result = AssignResult{BookingID: booking.ID, Reason: err.Error()}
			report.Failed++
		} else if result.Assigned {
			report.Assigned++
		} else {
			report.Unassigned++
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func (o *Orchestrator) recordSkipped(ctx context.Context, booking domain.Booking, strategy domain.Strategy, skipped []SkippedCandidate) {
	for _, skip := range skipped {
		rejection := skip.Rejection
		o.record(ctx, telemetry.Event{
			Kind:         telemetry.EventRejection,
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			TableIDs:     skip.TableIDs,
			Rejection:    &rejection,
			Strategy:     &strategy,
		})
	}
}

// recordAlternates reports the scored-but-not-chosen candidates with their
// dominant penalty so strategic rejections are analyzable downstream.
func (o *Orchestrator) recordAlternates(ctx context.Context, booking domain.Booking, strategy domain.Strategy, alternates []domain.Candidate) {
	for _, alt := range alternates {
		rejection := domain.StrategicRejection(alt.TableIDs(), alt.Breakdown)
		o.record(ctx, telemetry.Event{
			Kind:         telemetry.EventRejection,
			BookingID:    booking.ID,
			RestaurantID: booking.RestaurantID,
			TableIDs:     alt.TableIDs(),
			Rejection:    &rejection,
			Strategy:     &strategy,
		})
	}
}

func (o *Orchestrator) record(ctx context.Context, event telemetry.Event) {
	event.At = o.clock.Now()
	o.recorder.Record(ctx, event)
}

func rejectionPtr(r domain.Rejection) *domain.Rejection {
	return &r
}
