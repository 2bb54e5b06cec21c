package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingserrors "homigo/internal/bookings/errors"
	"homigo/pkg/config"
	mongotx "homigo/pkg/db/mongo"
	"homigo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type countingLocks struct {
	mu      sync.Mutex
	ensured   []string
	bumps     int
	outsideTx int
}

func (l *countingLocks) Ensure(_ context.Context, listingID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensured = append(l.ensured, listingID)
	return nil
}

func (l *countingLocks) Bump(ctx context.Context, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := ctx.(mongo.SessionContext); !ok {
		l.outsideTx++
	}
	l.bumps++
	return nil
}

// replayingTxManager runs the callback once per attempt and keeps only the
// last result, the way the driver does after a transient commit failure.
type replayingTxManager struct {
	attempts   int
	afterEach  func()
	executions int
}

func (m *replayingTxManager) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	var err error
	for i := 0; i < m.attempts; i++ {
		m.executions++
		err = fn(mongo.NewSessionContext(ctx, nil))
		if m.afterEach != nil {
			m.afterEach()
		}
	}
	return err
}

func mockRepository(mt *mtest.T, tx mongotx.TransactionManager, locks ListingLockRepository) *mongoBookingRepository {
	return &mongoBookingRepository{
		cfg:        &config.Config{ReadTimeout: time.Second, WriteTimeout: time.Second},
		collection: mt.Coll,
		locks:      locks,
		txManager:  tx,
	}
}

func pendingBooking(listingID string) *model.Booking {
	return &model.Booking{
		ListingID:     listingID,
		CustomerID:    "customer-1",
		OwnerID:       "owner-1",
		CheckIn:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		Guests:        1,
		Price:         3000,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentNotPaid,
	}
}

func TestCreateIfAvailable_Transaction(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	listingID := primitive.NewObjectID().Hex()

	mt.Run("retried attempt gets a fresh id", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		booking := pendingBooking(listingID)
		var ids []string
		tx := &replayingTxManager{attempts: 2, afterEach: func() { ids = append(ids, booking.ID) }}
		locks := &countingLocks{}

		require.NoError(mt, mockRepository(mt, tx, locks).CreateIfAvailable(context.Background(), booking))

		require.Len(mt, ids, 2)
		assert.NotEmpty(mt, ids[0])
		assert.NotEmpty(mt, ids[1])
		assert.NotEqual(mt, ids[0], ids[1])
		assert.Equal(mt, ids[1], booking.ID)
		_, err := primitive.ObjectIDFromHex(booking.ID)
		assert.NoError(mt, err)

		assert.Equal(mt, []string{listingID}, locks.ensured)
		assert.Equal(mt, 2, locks.bumps)
		assert.Zero(mt, locks.outsideTx)
		assert.False(mt, booking.CreatedAt.IsZero())
	})

	mt.Run("conflict on retry leaves no stale id", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: primitive.NewObjectID()}}),
		)

		booking := pendingBooking(listingID)
		var ids []string
		tx := &replayingTxManager{attempts: 2, afterEach: func() { ids = append(ids, booking.ID) }}
		locks := &countingLocks{}

		err := mockRepository(mt, tx, locks).CreateIfAvailable(context.Background(), booking)
		assert.ErrorIs(mt, err, bookingserrors.ErrDateConflict)

		require.Len(mt, ids, 2)
		assert.NotEmpty(mt, ids[0])
		assert.Empty(mt, booking.ID)
		assert.Equal(mt, 2, locks.bumps)
	})

	mt.Run("overlap on first attempt inserts nothing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: primitive.NewObjectID()}}),
		)

		booking := pendingBooking(listingID)
		tx := &replayingTxManager{attempts: 1}

		err := mockRepository(mt, tx, &countingLocks{}).CreateIfAvailable(context.Background(), booking)
		assert.ErrorIs(mt, err, bookingserrors.ErrDateConflict)
		assert.Empty(mt, booking.ID)

		started := mt.GetAllStartedEvents()
		for _, evt := range started {
			assert.NotEqual(mt, "insert", evt.CommandName)
		}
	})
}
