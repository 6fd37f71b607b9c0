package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/fleetmate/internal/models"
)

// fakeStore 内存版 Store，InTransaction 失败时整体回滚
type fakeStore struct {
	tank     []*models.TankEvent
	pumps    []*models.PumpEvent
	fuel     []*models.FuelRecord
	settings map[string]string
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[string]string)}
}

func (s *fakeStore) TankLevel(ctx context.Context) (float64, error) {
	var level float64
	for _, ev := range s.tank {
		if ev.Type == models.TankEventFill {
			level += ev.Liters
		} else {
			level -= ev.Liters
		}
	}
	return level, nil
}

func (s *fakeStore) AppendTankEvent(ctx context.Context, ev *models.TankEvent) error {
	s.nextID++
	ev.ID = s.nextID
	s.tank = append(s.tank, ev)
	return nil
}

func (s *fakeStore) TankHistory(ctx context.Context, limit int) ([]*models.TankEvent, error) {
	var events []*models.TankEvent
	for i := len(s.tank) - 1; i >= 0 && len(events) < limit; i-- {
		events = append(events, s.tank[i])
	}
	return events, nil
}

func (s *fakeStore) GetSetting(ctx context.Context, key string) (string, error) {
	return s.settings[key], nil
}

func (s *fakeStore) SetSetting(ctx context.Context, key, value string) error {
	s.settings[key] = value
	return nil
}

func (s *fakeStore) IncrementCounter(ctx context.Context, key string) (int64, error) {
	current, _ := strconv.ParseInt(s.settings[key], 10, 64)
	next := current + 1
	s.settings[key] = strconv.FormatInt(next, 10)
	return next, nil
}

func (s *fakeStore) AppendPumpEvent(ctx context.Context, ev *models.PumpEvent) error {
	s.nextID++
	ev.ID = s.nextID
	s.pumps = append(s.pumps, ev)
	return nil
}

func (s *fakeStore) PumpHistory(ctx context.Context, limit int) ([]*models.PumpEvent, error) {
	var events []*models.PumpEvent
	for i := len(s.pumps) - 1; i >= 0 && len(events) < limit; i-- {
		events = append(events, s.pumps[i])
	}
	return events, nil
}

func (s *fakeStore) InsertFuelRecord(ctx context.Context, rec *models.FuelRecord) error {
	s.nextID++
	rec.ID = s.nextID
	s.fuel = append(s.fuel, rec)
	return nil
}

func (s *fakeStore) InTransaction(ctx context.Context, fn func(Store) error) error {
	snapshot := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	tank     []*models.TankEvent
	pumps    []*models.PumpEvent
	fuel     []*models.FuelRecord
	settings map[string]string
	nextID   int64
}

func (s *fakeStore) snapshot() storeSnapshot {
	settings := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		settings[k] = v
	}
	return storeSnapshot{
		tank:     append([]*models.TankEvent(nil), s.tank...),
		pumps:    append([]*models.PumpEvent(nil), s.pumps...),
		fuel:     append([]*models.FuelRecord(nil), s.fuel...),
		settings: settings,
		nextID:   s.nextID,
	}
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.tank = snap.tank
	s.pumps = snap.pumps
	s.fuel = snap.fuel
	s.settings = snap.settings
	s.nextID = snap.nextID
}

func newTestLedger(store Store) *Ledger {
	return NewLedger(zap.NewNop(), store, 10000, 500, 1.0, nil)
}

const testDate = "2026-08-29"

func TestTankLevelConservation(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 100, "delivery")
	require.NoError(t, err)
	_, err = ledger.RefillTank(ctx, testDate, 200, "delivery")
	require.NoError(t, err)
	_, _, err = ledger.Consume(ctx, testDate, 50, "generator", false)
	require.NoError(t, err)

	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250.0, level)
}

func TestRefillTankRejectsNonPositiveLiters(t *testing.T) {
	ledger := newTestLedger(newFakeStore())

	for _, liters := range []float64{0, -10} {
		_, err := ledger.RefillTank(context.Background(), testDate, liters, "")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "liters", validationErr.Field)
	}
}

func TestRefillTankCapacityBound(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 9500, "")
	require.NoError(t, err)

	_, err = ledger.RefillTank(ctx, testDate, 600, "")
	var capacityErr *CapacityExceededError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 9500.0, capacityErr.Level)
	assert.Equal(t, 500.0, capacityErr.MaxFillable)

	// 拒绝后台账不变
	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9500.0, level)

	// 刚好填满允许
	_, err = ledger.RefillTank(ctx, testDate, 500, "")
	require.NoError(t, err)
	level, err = ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, level)
}

func TestConsumeShortfall(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 40, "")
	require.NoError(t, err)

	_, _, err = ledger.Consume(ctx, testDate, 60, "", false)
	var shortfallErr *InsufficientTankLevelError
	require.ErrorAs(t, err, &shortfallErr)
	assert.Equal(t, 40.0, shortfallErr.Available)
	assert.Equal(t, 60.0, shortfallErr.Requested)

	// 放行后允许液位为负
	_, warnings, err := ledger.Consume(ctx, testDate, 60, "", true)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnTankShortfall, warnings[0].Code)

	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, -20.0, level)
}

func TestUpdatePumpReadingMonotonic(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	ev, err := ledger.UpdatePumpReading(ctx, testDate, 1000, "AB123CD", "Mario Rossi", "")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, ev.LitersDispensed)

	_, err = ledger.UpdatePumpReading(ctx, testDate, 990, "AB123CD", "Mario Rossi", "")
	var monotonicErr *NonMonotonicReadingError
	require.ErrorAs(t, err, &monotonicErr)
	assert.Equal(t, 1000.0, monotonicErr.Current)
	assert.Equal(t, 990.0, monotonicErr.Requested)

	// 拒绝后读数与事件都不变
	reading, err := ledger.PumpReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, reading)
	history, err := ledger.PumpHistory(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpdatePumpReadingDerivesDispensed(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.UpdatePumpReading(ctx, testDate, 1000, "", "", "")
	require.NoError(t, err)

	ev, err := ledger.UpdatePumpReading(ctx, testDate, 1050, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, 50.0, ev.LitersDispensed)

	// 相同读数合法，出油量为 0
	ev, err = ledger.UpdatePumpReading(ctx, testDate, 1050, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ev.LitersDispensed)
}

func TestNextSequenceNumber(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 1; i <= 5; i++ {
		n, err := ledger.NextSequenceNumber(ctx, models.SettingMovementCounter)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
		assert.False(t, seen[n], "sequence number %d assigned twice", n)
		seen[n] = true
	}
}

func fuelInput(liters float64) FuelInput {
	return FuelInput{
		VehicleID:    1,
		VehiclePlate: "AB123CD",
		DriverID:     2,
		DriverName:   "Mario Rossi",
		Date:         testDate,
		Liters:       liters,
	}
}

func TestAddFuelRecordUpdatesTankAndPump(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 2000, "")
	require.NoError(t, err)
	_, err = ledger.UpdatePumpReading(ctx, testDate, 1000, "", "", "")
	require.NoError(t, err)

	input := fuelInput(50)
	newReading := 1050.5 // 与加油量偏差 0.5L，容差内
	input.PumpReading = &newReading

	result, err := ledger.AddFuelRecord(ctx, input)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	require.NotNil(t, result.Record)
	assert.NotZero(t, result.Record.ID)

	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1950.0, level)

	reading, err := ledger.PumpReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1050.5, reading)

	history, err := ledger.PumpHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 50.5, history[0].LitersDispensed)
	assert.Equal(t, "AB123CD", history[0].VehiclePlate)

	// 出油事件备注带车牌
	tankHistory, err := ledger.TankHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tankHistory, 1)
	assert.Equal(t, models.TankEventConsume, tankHistory[0].Type)
	assert.Equal(t, "refuel AB123CD", tankHistory[0].Notes)
}

func TestAddFuelRecordPumpMismatchWarns(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 2000, "")
	require.NoError(t, err)
	_, err = ledger.UpdatePumpReading(ctx, testDate, 1000, "", "", "")
	require.NoError(t, err)

	input := fuelInput(50)
	newReading := 1060.0 // 偏差 10L，超出容差
	input.PumpReading = &newReading

	result, err := ledger.AddFuelRecord(ctx, input)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnPumpMismatch, result.Warnings[0].Code)

	// 加油与出油落库，油泵不动
	assert.Len(t, store.fuel, 1)
	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1950.0, level)

	reading, err := ledger.PumpReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, reading)
	assert.Len(t, store.pumps, 1)
}

func TestAddFuelRecordNonMonotonicPumpRollsBack(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 2000, "")
	require.NoError(t, err)
	_, err = ledger.UpdatePumpReading(ctx, testDate, 1000, "", "", "")
	require.NoError(t, err)

	input := fuelInput(50)
	newReading := 900.0
	input.PumpReading = &newReading

	_, err = ledger.AddFuelRecord(ctx, input)
	var monotonicErr *NonMonotonicReadingError
	require.ErrorAs(t, err, &monotonicErr)

	// 整个事务回滚：无加油记录，液位与读数不变
	assert.Empty(t, store.fuel)
	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, level)
	reading, err := ledger.PumpReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, reading)
}

func TestAddFuelRecordValidation(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 2000, "")
	require.NoError(t, err)

	cases := []struct {
		name  string
		input FuelInput
		field string
	}{
		{"zero liters", fuelInput(0), "liters"},
		{"too many liters", fuelInput(1500), "liters"},
		{"bad date", func() FuelInput { in := fuelInput(50); in.Date = "29/08/2026"; return in }(), "date"},
		{"missing vehicle", func() FuelInput { in := fuelInput(50); in.VehicleID = 0; return in }(), "vehicle_id"},
		{"negative cost", func() FuelInput { in := fuelInput(50); in.Cost = -1; return in }(), "cost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.AddFuelRecord(ctx, tc.input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}

	// 校验失败不留任何痕迹
	assert.Empty(t, store.fuel)
	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, level)
}

func TestAddFuelRecordShortfall(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	_, err := ledger.RefillTank(ctx, testDate, 40, "")
	require.NoError(t, err)

	_, err = ledger.AddFuelRecord(ctx, fuelInput(60))
	var shortfallErr *InsufficientTankLevelError
	require.ErrorAs(t, err, &shortfallErr)
	assert.Equal(t, 40.0, shortfallErr.Available)
	assert.Empty(t, store.fuel)

	input := fuelInput(60)
	input.AllowShortfall = true
	result, err := ledger.AddFuelRecord(ctx, input)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnTankShortfall, result.Warnings[0].Code)

	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, -20.0, level)
}

func TestConsumeConservationSequence(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(store)
	ctx := context.Background()

	fills := []float64{1000, 250.5, 42}
	consumes := []float64{300, 12.5}
	var want float64
	for _, f := range fills {
		_, err := ledger.RefillTank(ctx, testDate, f, "")
		require.NoError(t, err)
		want += f
	}
	for _, c := range consumes {
		_, _, err := ledger.Consume(ctx, testDate, c, "", false)
		require.NoError(t, err)
		want -= c
	}

	level, err := ledger.TankLevel(ctx)
	require.NoError(t, err)
	assert.InDelta(t, want, level, 1e-9)

	history, err := ledger.TankHistory(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, history, len(fills)+len(consumes))
}

func TestPumpMismatchMessageCarriesNumbers(t *testing.T) {
	err := &NonMonotonicReadingError{Current: 1000, Requested: 990}
	assert.Equal(t, fmt.Sprintf("pump reading must not decrease: current %.1f, requested %.1f", 1000.0, 990.0), err.Error())
}
