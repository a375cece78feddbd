package httphandler

import (
	"errors"
	"net/http"

	"github.com/stellar/go-stellar-sdk/support/http/httpdecode"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/entities"
	"github.com/suimigrate/migrate-backend/internal/serve/httperror"
	"github.com/suimigrate/migrate-backend/internal/services"
	"github.com/suimigrate/migrate-backend/internal/validators"
)

type SnapshotHandler struct {
	SnapshotService      services.SnapshotService
	SnapshotQueryService services.SnapshotQueryService
	AppTracker           apptracker.AppTracker
}

type CreateSnapshotRequest struct {
	CoinType     string `json:"coinType"`
	NewTokenName string `json:"newTokenName" validate:"max=128"`
}

type SnapshotPathParams struct {
	SnapshotID string `path:"id" validate:"required,uuid"`
}

type HolderPathParams struct {
	SnapshotID string `path:"id" validate:"required,uuid"`
	Address    string `path:"address" validate:"required,sui_address"`
}

type HoldersResponse struct {
	SnapshotID string         `json:"snapshotId"`
	Holders    []*data.Holder `json:"holders"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// CreateSnapshot takes a holder snapshot of the requested coin type.
func (h SnapshotHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody CreateSnapshotRequest
	if err := httpdecode.DecodeJSON(r, &reqBody); err != nil {
		httperror.BadRequest("Invalid request body.", nil).Render(w)
		return
	}
	// The coin type is checked before anything else so the response carries the exact format message.
	if !services.IsValidCoinType(reqBody.CoinType) {
		httperror.BadRequest(services.ErrInvalidCoinType.Error(), nil).Render(w)
		return
	}
	if httpErr := ValidateRequestParams(ctx, reqBody, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}

	result, err := h.SnapshotService.TakeSnapshot(ctx, services.SnapshotRequest{
		CoinType:     reqBody.CoinType,
		NewTokenName: reqBody.NewTokenName,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoinType) {
			httperror.BadRequest(services.ErrInvalidCoinType.Error(), nil).Render(w)
			return
		}
		httperror.InternalServerError(ctx, err.Error(), err, nil, h.AppTracker).Render(w)
		return
	}

	httpjson.Render(w, result, httpjson.JSON)
}

func (h SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var page entities.PageParams
	if httpErr := DecodeQueryAndValidate(ctx, r, &page, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}
	page = page.Normalized()

	list, err := h.SnapshotQueryService.ListSnapshots(ctx, page.Limit, page.Offset)
	if err != nil {
		httperror.InternalServerError(ctx, "", err, nil, h.AppTracker).Render(w)
		return
	}

	httpjson.Render(w, list, httpjson.JSON)
}

func (h SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params SnapshotPathParams
	if httpErr := DecodePathAndValidate(ctx, r, &params, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}

	snapshot, err := h.SnapshotQueryService.GetSnapshot(ctx, params.SnapshotID)
	if err != nil {
		h.renderLookupError(w, r, err)
		return
	}

	httpjson.Render(w, snapshot, httpjson.JSON)
}

// ListHolders lists the holders of a snapshot, largest balance first.
func (h SnapshotHandler) ListHolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params SnapshotPathParams
	if httpErr := DecodePathAndValidate(ctx, r, &params, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}

	var page entities.PageParams
	if httpErr := DecodeQueryAndValidate(ctx, r, &page, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}
	page = page.Normalized()

	holders, err := h.SnapshotQueryService.ListHolders(ctx, params.SnapshotID, page.Limit, page.Offset)
	if err != nil {
		h.renderLookupError(w, r, err)
		return
	}
	if holders == nil {
		holders = []*data.Holder{}
	}

	httpjson.Render(w, HoldersResponse{
		SnapshotID: params.SnapshotID,
		Holders:    holders,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}, httpjson.JSON)
}

// GetHolder answers whether an address held the old token at snapshot time, and how much.
func (h SnapshotHandler) GetHolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params HolderPathParams
	if httpErr := DecodePathAndValidate(ctx, r, &params, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}

	holder, err := h.SnapshotQueryService.GetHolder(ctx, params.SnapshotID, validators.NormalizeSuiAddress(params.Address))
	if err != nil {
		h.renderLookupError(w, r, err)
		return
	}

	httpjson.Render(w, holder, httpjson.JSON)
}

func (h SnapshotHandler) renderLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, data.ErrSnapshotNotFound):
		httperror.ResourceNotFound("Snapshot not found.").Render(w)
	case errors.Is(err, services.ErrHolderNotFound):
		httperror.ResourceNotFound("Address is not a holder in this snapshot.").Render(w)
	default:
		httperror.InternalServerError(r.Context(), "", err, nil, h.AppTracker).Render(w)
	}
}
