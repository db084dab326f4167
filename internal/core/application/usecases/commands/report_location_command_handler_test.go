package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportLocationCommandHandler_Handle(t *testing.T) {
	courier := kernel.NewUUID()

	setup := func(o *order.Order) (*MockUoWFactory, *MockLocationStore, *MockPublisher) {
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		uow := new(MockUoW)
		uow.On("OrderRepository").Return(repo)
		factory := new(MockUoWFactory)
		factory.On("Create").Return(uow)
		return factory, new(MockLocationStore), new(MockPublisher)
	}

	t.Run("stores and publishes position of the courier", func(t *testing.T) {
		ctx := t.Context()
		o := newDeliveringOrder(t, courier, 500)
		factory, locations, publisher := setup(o)
		cmd, err := commands.NewReportLocationCommand(o.ID(), courier, 48.86, 2.35)
		require.NoError(t, err)

		locations.On("Save", ctx, mock.MatchedBy(func(loc ports.CourierLocation) bool {
			return loc.CourierID.IsEqual(courier) && loc.OrderID.IsEqual(o.ID()) && loc.At.Equal(fixedNow)
		})).Return(nil).Once()
		publisher.On("Publish", ctx, mock.MatchedBy(func(events []kernel.DomainEvent) bool {
			if len(events) != 1 {
				return false
			}
			ev, ok := events[0].(order.LocationReported)
			return ok && ev.Point.Lat() == 48.86 && ev.Order.Status == order.Delivering
		})).Return(nil).Once()

		h := commands.NewReportLocationCommandHandler(orderFactory{factory}, locations, publisher).WithClock(clock)
		require.NoError(t, h.Handle(ctx, cmd))

		locations.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("rejects anyone but the courier", func(t *testing.T) {
		ctx := t.Context()
		o := newDeliveringOrder(t, courier, 500)
		factory, locations, publisher := setup(o)
		cmd, err := commands.NewReportLocationCommand(o.ID(), o.RequesterID(), 48.86, 2.35)
		require.NoError(t, err)

		err = commands.NewReportLocationCommandHandler(orderFactory{factory}, locations, publisher).Handle(ctx, cmd)

		require.ErrorIs(t, err, order.ErrUnauthorized)
		locations.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("ignores terminal orders", func(t *testing.T) {
		ctx := t.Context()
		o := newPendingOrder(t, 500)
		require.NoError(t, o.Assign(courier, fixedNow))
		require.NoError(t, o.Cancel(courier, "", fixedNow))
		factory, locations, publisher := setup(o)
		cmd, err := commands.NewReportLocationCommand(o.ID(), courier, 48.86, 2.35)
		require.NoError(t, err)

		err = commands.NewReportLocationCommandHandler(orderFactory{factory}, locations, publisher).Handle(ctx, cmd)

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		_, err := commands.NewReportLocationCommand(kernel.NewUUID(), courier, 91, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lat")
	})
}
