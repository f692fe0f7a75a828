package actor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
)

var (
	staff = audit.Identity{UserID: uuid.New()}
	admin = audit.Identity{UserID: uuid.New(), Superuser: true}
)

func validParams() actor.Params {
	return actor.Params{
		Name:       "Computer Corporation",
		Address:    "12 rue de la Paix",
		City:       "Paris",
		PostalCode: "75002",
		Country:    "fr",
		Email:      "sales@computer.example",
	}
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    func() actor.Params
		setupMock func(m *actor.MockRepository)
		wantField string
		wantErr   bool
	}

	tests := []testCase{
		{
			name:   "success",
			params: validParams,
			setupMock: func(m *actor.MockRepository) {
				m.EXPECT().CreateActor(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *actor.Actor) error {
					assert.Equal(t, actor.KindSaler, a.Kind)
					assert.Equal(t, "FR", a.Country)
					assert.Zero(t, a.EstimateNumber)
					assert.Zero(t, a.InvoiceNumber)
					assert.True(t, a.Active)
					a.ID = uuid.New()
					return nil
				})
			},
		},
		{
			name: "missing name",
			params: func() actor.Params {
				p := validParams()
				p.Name = "   "
				return p
			},
			setupMock: func(m *actor.MockRepository) {},
			wantField: "name",
			wantErr:   true,
		},
		{
			name: "missing postal code",
			params: func() actor.Params {
				p := validParams()
				p.PostalCode = ""
				return p
			},
			setupMock: func(m *actor.MockRepository) {},
			wantField: "postal_code",
			wantErr:   true,
		},
		{
			name: "bad email",
			params: func() actor.Params {
				p := validParams()
				p.Email = "not-an-email"
				return p
			},
			setupMock: func(m *actor.MockRepository) {},
			wantField: "email",
			wantErr:   true,
		},
		{
			name: "unknown country",
			params: func() actor.Params {
				p := validParams()
				p.Country = "XX"
				return p
			},
			setupMock: func(m *actor.MockRepository) {},
			wantField: "country",
			wantErr:   true,
		},
		{
			name: "name too long",
			params: func() actor.Params {
				p := validParams()
				p.Name = strings.Repeat("a", 201)
				return p
			},
			setupMock: func(m *actor.MockRepository) {},
			wantField: "name",
			wantErr:   true,
		},
		{
			name:   "repository error",
			params: validParams,
			setupMock: func(m *actor.MockRepository) {
				m.EXPECT().CreateActor(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockRepo := actor.NewMockRepository(ctrl)
			tt.setupMock(mockRepo)

			svc := actor.NewService(mockRepo)
			got, err := svc.Create(context.Background(), staff, actor.KindSaler, tt.params())

			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, got.ID)
				return
			}

			require.Error(t, err)

			if tt.wantField != "" {
				var verr *apperr.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			}
		})
	}
}

func TestService_GetHidesInactiveFromStaff(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := actor.NewMockRepository(ctrl)
	id := uuid.New()

	inactive := &actor.Actor{ID: id, Kind: actor.KindCustomer}
	mockRepo.EXPECT().GetActor(gomock.Any(), actor.KindCustomer, id).Return(inactive, nil).Times(2)

	svc := actor.NewService(mockRepo)

	_, err := svc.Get(context.Background(), staff, actor.KindCustomer, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.Get(context.Background(), admin, actor.KindCustomer, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestService_ListOnlySuperuserSeesInactive(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := actor.NewMockRepository(ctrl)

	mockRepo.EXPECT().ListActors(gomock.Any(), actor.KindSaler, actor.ListFilter{IncludeInactive: false}).Return(nil, nil)
	mockRepo.EXPECT().ListActors(gomock.Any(), actor.KindSaler, actor.ListFilter{IncludeInactive: true}).Return(nil, nil)

	svc := actor.NewService(mockRepo)

	_, err := svc.List(context.Background(), staff, actor.KindSaler, actor.ListFilter{IncludeInactive: true})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), admin, actor.KindSaler, actor.ListFilter{IncludeInactive: true})
	require.NoError(t, err)
}

func TestService_UpdateKeepsCounters(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := actor.NewMockRepository(ctrl)
	id := uuid.New()

	existing := &actor.Actor{
		ID:             id,
		Kind:           actor.KindSaler,
		Name:           "Old",
		EstimateNumber: 7,
		InvoiceNumber:  3,
		Record:         audit.New(staff, time.Now()),
	}

	mockRepo.EXPECT().GetActor(gomock.Any(), actor.KindSaler, id).Return(existing, nil)
	mockRepo.EXPECT().UpdateActor(gomock.Any(), existing).Return(nil)

	svc := actor.NewService(mockRepo)

	got, err := svc.Update(context.Background(), staff, actor.KindSaler, id, validParams())
	require.NoError(t, err)
	assert.Equal(t, "Computer Corporation", got.Name)
	assert.Equal(t, int64(7), got.EstimateNumber)
	assert.Equal(t, int64(3), got.InvoiceNumber)
	require.NotNil(t, got.ModifiedBy)
	assert.Equal(t, staff.UserID, *got.ModifiedBy)
}

func TestService_DeactivateAndRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := actor.NewMockRepository(ctrl)
	id := uuid.New()

	a := &actor.Actor{ID: id, Kind: actor.KindCustomer, Record: audit.New(staff, time.Now())}

	mockRepo.EXPECT().GetActor(gomock.Any(), actor.KindCustomer, id).Return(a, nil).Times(2)
	mockRepo.EXPECT().SetActorActive(gomock.Any(), a).Return(nil).Times(2)

	svc := actor.NewService(mockRepo)

	require.NoError(t, svc.Deactivate(context.Background(), staff, actor.KindCustomer, id))
	assert.False(t, a.Active)
	assert.NotNil(t, a.DeletedAt)

	_, err := svc.Restore(context.Background(), staff, actor.KindCustomer, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := svc.Restore(context.Background(), admin, actor.KindCustomer, id)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Nil(t, got.DeletedAt)
}

func TestParseKind(t *testing.T) {
	k, err := actor.ParseKind("saler")
	require.NoError(t, err)
	assert.Equal(t, actor.KindSaler, k)

	_, err = actor.ParseKind("vendor")
	assert.Error(t, err)
}
