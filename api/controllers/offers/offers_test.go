package offers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	offersvc "github.com/angelmondragon/wholesale-offers/internal/offers"
	"github.com/angelmondragon/wholesale-offers/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-offers/pkg/errors"
	"github.com/angelmondragon/wholesale-offers/pkg/pagination"
)

type stubOfferService struct {
	offers []offersvc.Offer
	offer  *offersvc.Offer
	result offersvc.CalculationResult
	err    error

	lastQuery  offersvc.ApplicableQuery
	lastLines  []offersvc.CartLineInput
	lastInput  offersvc.OfferInput
	lastScope  offersvc.ScopeInput
	lastFilter offersvc.ListOffersFilter
	lastPage   pagination.Params
	lastID     uuid.UUID
}

func (s *stubOfferService) FindApplicableOffers(ctx context.Context, query offersvc.ApplicableQuery) ([]offersvc.Offer, error) {
	s.lastQuery = query
	return s.offers, s.err
}

func (s *stubOfferService) CalculateCartOffers(ctx context.Context, lines []offersvc.CartLineInput) (offersvc.CalculationResult, error) {
	s.lastLines = lines
	return s.result, s.err
}

func (s *stubOfferService) CreateOffer(ctx context.Context, input offersvc.OfferInput) (*offersvc.Offer, error) {
	s.lastInput = input
	return s.offer, s.err
}

func (s *stubOfferService) UpdateOffer(ctx context.Context, id uuid.UUID, input offersvc.OfferInput) (*offersvc.Offer, error) {
	s.lastID = id
	s.lastInput = input
	return s.offer, s.err
}

func (s *stubOfferService) ReplaceOfferScopes(ctx context.Context, id uuid.UUID, scope offersvc.ScopeInput) (*offersvc.Offer, error) {
	s.lastID = id
	s.lastScope = scope
	return s.offer, s.err
}

func (s *stubOfferService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	s.lastID = id
	return s.err
}

func (s *stubOfferService) GetOffer(ctx context.Context, id uuid.UUID) (*offersvc.Offer, error) {
	s.lastID = id
	return s.offer, s.err
}

func (s *stubOfferService) ListOffers(ctx context.Context, filter offersvc.ListOffersFilter, page pagination.Params) (*offersvc.OfferPage, error) {
	s.lastFilter = filter
	s.lastPage = page
	if s.err != nil {
		return nil, s.err
	}
	return &offersvc.OfferPage{Offers: s.offers, NextCursor: "next"}, nil
}

func sampleOffer() offersvc.Offer {
	return offersvc.Offer{
		ID:       uuid.New(),
		Name:     "Christmas 10%",
		Reward:   offersvc.PercentOff{Percent: decimal.NewFromInt(10)},
		Priority: 5,
		IsActive: true,
		Scope: offersvc.Scope{
			Products:    offersvc.NewStringSet(),
			Categories:  offersvc.NewStringSet("Garlands"),
			Collections: offersvc.NewStringSet(),
		},
	}
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestApplicableForItem(t *testing.T) {
	svc := &stubOfferService{offers: []offersvc.Offer{sampleOffer()}}
	productID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers/applicable?product_id="+productID.String()+"&category=%20Garlands%20", nil)
	resp := httptest.NewRecorder()
	ApplicableForItem(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.lastQuery.Item)
	require.Equal(t, productID, *svc.lastQuery.Item.ProductID)
	require.Equal(t, "Garlands", svc.lastQuery.Item.Category)
	require.Empty(t, svc.lastQuery.Item.Collection)

	env := decodeEnvelope[[]offersvc.OfferDTO](t, resp)
	require.Len(t, env.Data, 1)
	require.Equal(t, enums.OfferTypePercentOff, env.Data[0].Type)
	require.Equal(t, "10.00", *env.Data[0].Percent)
}

func TestApplicableForItemRejectsBadProductID(t *testing.T) {
	svc := &stubOfferService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers/applicable?product_id=abc", nil)
	resp := httptest.NewRecorder()
	ApplicableForItem(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Nil(t, svc.lastQuery.Item)
}

func TestApplicableForCart(t *testing.T) {
	svc := &stubOfferService{offers: []offersvc.Offer{}}
	productID := uuid.New()
	body := `{"lines":[{"product_id":"` + productID.String() + `","quantity":3}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers/applicable", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ApplicableForCart(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, svc.lastQuery.Lines, 1)
	require.Nil(t, svc.lastQuery.Lines[0].UnitPrice)

	env := decodeEnvelope[[]offersvc.OfferDTO](t, resp)
	require.NotNil(t, env.Data)
	require.Empty(t, env.Data)
}

func TestCalculateCart(t *testing.T) {
	offerID := uuid.New()
	svc := &stubOfferService{result: offersvc.CalculationResult{
		AppliedOffers: []offersvc.AppliedOffer{{
			OfferID:   offerID,
			OfferName: "Christmas 10%",
			Type:      enums.OfferTypePercentOff,
			Discount:  decimal.RequireFromString("16"),
		}},
		TotalDiscount:  decimal.RequireFromString("16"),
		OriginalAmount: decimal.RequireFromString("160"),
		FinalAmount:    decimal.RequireFromString("144"),
	}}
	productID := uuid.New()
	body := `{"lines":[{"product_id":"` + productID.String() + `","quantity":2,"unit_price":"80.00"}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/offers", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CalculateCart(svc, 2, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, svc.lastLines, 1)
	require.True(t, decimal.RequireFromString("80").Equal(*svc.lastLines[0].UnitPrice))

	env := decodeEnvelope[offersvc.CalculationDTO](t, resp)
	require.Equal(t, "16.00", env.Data.TotalDiscount)
	require.Equal(t, "160.00", env.Data.OriginalAmount)
	require.Equal(t, "144.00", env.Data.FinalAmount)
	require.Len(t, env.Data.AppliedOffers, 1)
	require.Equal(t, offerID, env.Data.AppliedOffers[0].OfferID)
	require.NotNil(t, env.Data.FreeItems)
}

func TestCalculateCartRejectsBadUnitPrice(t *testing.T) {
	svc := &stubOfferService{}
	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":1,"unit_price":"ten"}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/offers", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CalculateCart(svc, 2, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	env := decodeEnvelope[any](t, resp)
	require.Equal(t, "must be a decimal number", env.Error.Details["lines[0].unit_price"])
	require.Nil(t, svc.lastLines)
}

func TestCalculateCartPropagatesNotFound(t *testing.T) {
	svc := &stubOfferService{err: pkgerrors.New(pkgerrors.CodeNotFound, "products not found")}
	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/offers", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CalculateCart(svc, 2, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandlersWithoutService(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers/applicable", nil)
	resp := httptest.NewRecorder()
	ApplicableForItem(nil, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func adminRouter(svc offersvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/offers", AdminListOffers(svc, nil))
	r.Post("/offers", AdminCreateOffer(svc, nil))
	r.Get("/offers/{offerId}", AdminGetOffer(svc, nil))
	r.Put("/offers/{offerId}", AdminUpdateOffer(svc, nil))
	r.Put("/offers/{offerId}/scopes", AdminReplaceOfferScopes(svc, nil))
	r.Delete("/offers/{offerId}", AdminDeleteOffer(svc, nil))
	return r
}

func TestAdminCreateOffer(t *testing.T) {
	offer := sampleOffer()
	svc := &stubOfferService{offer: &offer}
	body := `{
	  "name": "Christmas 10%",
	  "offer_type": "percent_off",
	  "percent": "10",
	  "priority": 5,
	  "scope": {"categories": ["Garlands"]}
	}`

	req := httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body))
	resp := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, enums.OfferTypePercentOff, svc.lastInput.Type)
	require.True(t, decimal.NewFromInt(10).Equal(*svc.lastInput.Percent))
	require.True(t, svc.lastInput.IsActive)
	require.NotNil(t, svc.lastInput.Scope)
	require.Equal(t, []string{"Garlands"}, svc.lastInput.Scope.Categories)

	env := decodeEnvelope[offersvc.OfferDTO](t, resp)
	require.Equal(t, offer.ID, env.Data.ID)
	require.Equal(t, []string{"Garlands"}, env.Data.Scope.Categories)
}

func TestAdminCreateOfferValidation(t *testing.T) {
	svc := &stubOfferService{}
	body := `{"name": "", "offer_type": "bogus", "min_quantity": -1}`

	req := httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(body))
	resp := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	env := decodeEnvelope[any](t, resp)
	require.Contains(t, env.Error.Details, "name")
	require.Contains(t, env.Error.Details, "offer_type")
	require.Contains(t, env.Error.Details, "min_quantity")
}

func TestAdminUpdateOfferKeepsScopeWhenOmitted(t *testing.T) {
	offer := sampleOffer()
	svc := &stubOfferService{offer: &offer}
	body := `{"name": "Renamed", "offer_type": "amount_off", "amount": "5.00", "is_active": false}`

	req := httptest.NewRequest(http.MethodPut, "/offers/"+offer.ID.String(), strings.NewReader(body))
	resp := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, offer.ID, svc.lastID)
	require.Nil(t, svc.lastInput.Scope)
	require.False(t, svc.lastInput.IsActive)
}

func TestAdminReplaceOfferScopes(t *testing.T) {
	offer := sampleOffer()
	svc := &stubOfferService{offer: &offer}
	productID := uuid.New()
	body := `{"products": ["` + productID.String() + `"], "collections": ["Christmas"]}`

	req := httptest.NewRequest(http.MethodPut, "/offers/"+offer.ID.String()+"/scopes", strings.NewReader(body))
	resp := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, []uuid.UUID{productID}, svc.lastScope.Products)
	require.Equal(t, []string{"Christmas"}, svc.lastScope.Collections)
}

func TestAdminGetAndDelete(t *testing.T) {
	offer := sampleOffer()
	svc := &stubOfferService{offer: &offer}

	resp := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/offers/"+offer.ID.String(), nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/offers/"+offer.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, offer.ID, svc.lastID)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	resp = httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/offers/"+offer.ID.String(), nil))
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/offers/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminListOffers(t *testing.T) {
	svc := &stubOfferService{offers: []offersvc.Offer{sampleOffer()}}

	resp := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/offers?active_only=true&limit=10&cursor=abc", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, svc.lastFilter.ActiveOnly)
	require.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, svc.lastPage)

	env := decodeEnvelope[offersvc.OfferListDTO](t, resp)
	require.Len(t, env.Data.Offers, 1)
	require.Equal(t, "next", env.Data.NextCursor)

	resp = httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/offers?limit=1000", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
