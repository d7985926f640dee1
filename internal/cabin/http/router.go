package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hyttebook/backend/internal/cabin/domain"
	"github.com/hyttebook/backend/internal/cabin/service"
	commonhttp "github.com/hyttebook/backend/internal/common/http"
	"github.com/hyttebook/backend/internal/common/jwtverify"
	"github.com/hyttebook/backend/internal/common/logger"
)

type cabinRequest struct {
	Name                  string `json:"name"`
	Address               string `json:"address"`
	PostalCode            string `json:"postal_code"`
	City                  string `json:"city"`
	Phone                 string `json:"phone"`
	Email                 string `json:"email"`
	ContactPersonName     string `json:"contact_person_name"`
	ContactPersonEmployer string `json:"contact_person_employer"`
	IsMember              *bool  `json:"is_member"`
}

type cabinUpdateRequest struct {
	Name                  *string `json:"name"`
	Address               *string `json:"address"`
	PostalCode            *string `json:"postal_code"`
	City                  *string `json:"city"`
	Phone                 *string `json:"phone"`
	Email                 *string `json:"email"`
	ContactPersonName     *string `json:"contact_person_name"`
	ContactPersonEmployer *string `json:"contact_person_employer"`
	IsMember              *bool   `json:"is_member"`
}

type cabinResponse struct {
	ID                    int64     `json:"id"`
	Owner                 string    `json:"owner"`
	Name                  string    `json:"name"`
	Slug                  string    `json:"slug"`
	Address               string    `json:"address"`
	PostalCode            string    `json:"postal_code"`
	City                  string    `json:"city"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	ContactPersonName     string    `json:"contact_person_name"`
	ContactPersonEmployer string    `json:"contact_person_employer"`
	IsMember              bool      `json:"is_member"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type cabinPageResponse struct {
	Items []cabinResponse `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type Handler struct {
	cabins *service.CabinService
	errors *commonhttp.ErrorHandler
	log    *logger.Logger
}

// NewHandler mounts the cabin routes. authMW guards the mutating routes and
// the owner-scoped listing; reads stay public.
func NewHandler(cabins *service.CabinService, authMW func(http.Handler) http.Handler, log *logger.Logger) http.Handler {
	h := &Handler{
		cabins: cabins,
		errors: commonhttp.NewErrorHandler(log),
		log:    log,
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/cabins", h.collection(authMW))
	mux.Handle("/v1/cabins/mine", authMW(http.HandlerFunc(h.listMine)))
	mux.Handle("/v1/cabins/", h.item(authMW))
	return mux
}

func (h *Handler) collection(authMW func(http.Handler) http.Handler) http.Handler {
	create := authMW(http.HandlerFunc(h.create))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			create.ServeHTTP(w, r)
		default:
			commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
		}
	})
}

func (h *Handler) item(authMW func(http.Handler) http.Handler) http.Handler {
	update := authMW(http.HandlerFunc(h.update))
	remove := authMW(http.HandlerFunc(h.delete))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug, ok := extractSlug(r.URL.Path)
		if !ok {
			commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeSlugRequired, "cabin slug is required", nil, "")
			return
		}
		r = r.WithContext(withSlug(r.Context(), slug))

		switch r.Method {
		case http.MethodGet:
			h.getBySlug(w, r)
		case http.MethodPut:
			update.ServeHTTP(w, r)
		case http.MethodDelete:
			remove.ServeHTTP(w, r)
		default:
			commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
		}
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req cabinRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("create cabin failed: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}

	cabin, err := h.cabins.Create(r.Context(), service.CreateInput{
		Name:                  req.Name,
		Address:               req.Address,
		PostalCode:            req.PostalCode,
		City:                  req.City,
		Phone:                 req.Phone,
		Email:                 req.Email,
		ContactPersonName:     req.ContactPersonName,
		ContactPersonEmployer: req.ContactPersonEmployer,
		IsMember:              req.IsMember,
	}, domain.OwnerID(claims.UserID))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, toCabinResponse(cabin))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r)
	if err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidPagination, err.Error(), nil, "")
		return
	}

	result, err := h.cabins.List(r.Context(), filter, page)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toCabinPageResponse(result))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	_, page, err := parseListQuery(r)
	if err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidPagination, err.Error(), nil, "")
		return
	}

	result, err := h.cabins.ListMine(r.Context(), domain.OwnerID(claims.UserID), page)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toCabinPageResponse(result))
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	cabin, err := h.cabins.GetBySlug(r.Context(), slugFromContext(r.Context()))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toCabinResponse(cabin))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req cabinUpdateRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("update cabin failed: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}

	cabin, err := h.cabins.Update(r.Context(), slugFromContext(r.Context()), service.UpdateInput{
		Name:                  req.Name,
		Address:               req.Address,
		PostalCode:            req.PostalCode,
		City:                  req.City,
		Phone:                 req.Phone,
		Email:                 req.Email,
		ContactPersonName:     req.ContactPersonName,
		ContactPersonEmployer: req.ContactPersonEmployer,
		IsMember:              req.IsMember,
	}, domain.OwnerID(claims.UserID))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toCabinResponse(cabin))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	if err := h.cabins.Delete(r.Context(), slugFromContext(r.Context()), domain.OwnerID(claims.UserID)); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "cabin deleted"})
}

func parseListQuery(r *http.Request) (domain.ListFilter, domain.Page, error) {
	q := r.URL.Query()

	filter := domain.ListFilter{City: q.Get("city")}
	if raw := q.Get("is_member"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ListFilter{}, domain.Page{}, err
		}
		filter.IsMember = &v
	}

	page := domain.Page{}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.ListFilter{}, domain.Page{}, err
		}
		page.Limit = v
	}
	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.ListFilter{}, domain.Page{}, err
		}
		page.Page = v
	}

	return filter, page, nil
}

func extractSlug(path string) (string, bool) {
	remaining := strings.TrimPrefix(path, "/v1/cabins/")
	if remaining == "" || strings.Contains(remaining, "/") {
		return "", false
	}
	return remaining, true
}

func toCabinResponse(cabin domain.Cabin) cabinResponse {
	return cabinResponse{
		ID:                    cabin.ID,
		Owner:                 string(cabin.Owner),
		Name:                  cabin.Name,
		Slug:                  cabin.Slug,
		Address:               cabin.Address,
		PostalCode:            cabin.PostalCode,
		City:                  cabin.City,
		Phone:                 cabin.Phone,
		Email:                 cabin.Email,
		ContactPersonName:     cabin.ContactPersonName,
		ContactPersonEmployer: cabin.ContactPersonEmployer,
		IsMember:              cabin.IsMember,
		CreatedAt:             cabin.CreatedAt,
		UpdatedAt:             cabin.UpdatedAt,
	}
}

func toCabinPageResponse(page domain.CabinPage) cabinPageResponse {
	items := make([]cabinResponse, 0, len(page.Items))
	for _, cabin := range page.Items {
		items = append(items, toCabinResponse(cabin))
	}
	return cabinPageResponse{
		Items: items,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}
