package offers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/wholesale-offers/api/responses"
	"github.com/angelmondragon/wholesale-offers/api/validators"
	offersvc "github.com/angelmondragon/wholesale-offers/internal/offers"
	pkgerrors "github.com/angelmondragon/wholesale-offers/pkg/errors"
	"github.com/angelmondragon/wholesale-offers/pkg/logger"
)

// ApplicableForItem lists the offers that could badge a single catalog item.
func ApplicableForItem(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item := offersvc.ItemContext{
			ProductID:  productID,
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			Collection: strings.TrimSpace(r.URL.Query().Get("collection")),
		}

		found, err := svc.FindApplicableOffers(r.Context(), offersvc.ApplicableQuery{Item: &item})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offersvc.NewOfferDTOs(found))
	}
}

// ApplicableForCart lists the offers any line of the posted cart could trigger.
func ApplicableForCart(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		lines, err := decodeCart(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.FindApplicableOffers(r.Context(), offersvc.ApplicableQuery{Lines: lines})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offersvc.NewOfferDTOs(found))
	}
}

// CalculateCart runs the stacking evaluation for the posted cart. Amounts are
// rendered with places decimals.
func CalculateCart(svc offersvc.Service, places int32, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		lines, err := decodeCart(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CalculateCartOffers(r.Context(), lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offersvc.NewCalculationDTO(result, places))
	}
}

func decodeCart(r *http.Request) ([]offersvc.CartLineInput, error) {
	var payload cartRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return nil, err
	}
	return toCartLines(payload)
}
