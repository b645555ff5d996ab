package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/equipman/internal/middleware"
	"github.com/hitoshi/equipman/internal/model"
)

// ProductServiceInterface は機器ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	Create(ctx context.Context, p *model.Product, actor *model.User) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	Update(ctx context.Context, id string, changes map[string]any, actor *model.User) (*model.Product, error)
	Delete(ctx context.Context, id string, actor *model.User) error
}

// ProductHandler は機器レコードのHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productPayload は機器作成リクエストのボディ。
type productPayload struct {
	Tag                      string                  `json:"tag"`
	UnitNumber               string                  `json:"unit_number"`
	InstalledAt              string                  `json:"installed_at"`
	UpdatedDate              string                  `json:"updated_date"`
	WarrantyUntil            string                  `json:"warranty_until"`
	UnitModel                string                  `json:"unit_model"`
	ExistingPower            string                  `json:"existing_power"`
	ProposalStatus           string                  `json:"proposal_status"`
	DeploymentStatus         string                  `json:"deployment_status"`
	Region                   string                  `json:"region"`
	Site                     string                  `json:"site"`
	Latitude                 string                  `json:"latitude"`
	Longitude                string                  `json:"longitude"`
	MountType                string                  `json:"mount_type"`
	Azimuth                  string                  `json:"azimuth"`
	PrimaryRepeater          string                  `json:"primary_repeater"`
	SecondaryRepeater        string                  `json:"secondary_repeater"`
	RadioFirmware            string                  `json:"radio_firmware"`
	MelodyType               string                  `json:"melody_type"`
	AlarmPriority            string                  `json:"alarm_priority"`
	PrimaryChannelID         string                  `json:"primary_channel_id"`
	SecondaryChannelID       string                  `json:"secondary_channel_id"`
	PrimaryRadioSerial       string                  `json:"primary_radio_serial"`
	PrimaryRadioModel        string                  `json:"primary_radio_model"`
	SecondaryRadioSerial     string                  `json:"secondary_radio_serial"`
	SecondaryRadioModel      string                  `json:"secondary_radio_model"`
	PrimaryConverterSerial   string                  `json:"primary_converter_serial"`
	SecondaryConverterSerial string                  `json:"secondary_converter_serial"`
	MotherboardFirmware      string                  `json:"motherboard_firmware"`
	Motherboard              model.SerialComponent   `json:"motherboard"`
	PowerSupply              model.SerialComponent   `json:"power_supply"`
	PrimaryCommBoard         model.SerialComponent   `json:"primary_comm_board"`
	SecondaryCommBoard       model.SerialComponent   `json:"secondary_comm_board"`
	Amplifiers               []model.SerialComponent `json:"amplifiers"`
	Notes                    string                  `json:"notes"`
}

// productPatch は機器部分更新リクエストのボディ。
// nilのフィールドは「変更しない」を意味する。空文字列や空配列は明示的な変更。
type productPatch struct {
	Tag                      *string                  `json:"tag"`
	UnitNumber               *string                  `json:"unit_number"`
	InstalledAt              *string                  `json:"installed_at"`
	UpdatedDate              *string                  `json:"updated_date"`
	WarrantyUntil            *string                  `json:"warranty_until"`
	UnitModel                *string                  `json:"unit_model"`
	ExistingPower            *string                  `json:"existing_power"`
	ProposalStatus           *string                  `json:"proposal_status"`
	DeploymentStatus         *string                  `json:"deployment_status"`
	Region                   *string                  `json:"region"`
	Site                     *string                  `json:"site"`
	Latitude                 *string                  `json:"latitude"`
	Longitude                *string                  `json:"longitude"`
	MountType                *string                  `json:"mount_type"`
	Azimuth                  *string                  `json:"azimuth"`
	PrimaryRepeater          *string                  `json:"primary_repeater"`
	SecondaryRepeater        *string                  `json:"secondary_repeater"`
	RadioFirmware            *string                  `json:"radio_firmware"`
	MelodyType               *string                  `json:"melody_type"`
	AlarmPriority            *string                  `json:"alarm_priority"`
	PrimaryChannelID         *string                  `json:"primary_channel_id"`
	SecondaryChannelID       *string                  `json:"secondary_channel_id"`
	PrimaryRadioSerial       *string                  `json:"primary_radio_serial"`
	PrimaryRadioModel        *string                  `json:"primary_radio_model"`
	SecondaryRadioSerial     *string                  `json:"secondary_radio_serial"`
	SecondaryRadioModel      *string                  `json:"secondary_radio_model"`
	PrimaryConverterSerial   *string                  `json:"primary_converter_serial"`
	SecondaryConverterSerial *string                  `json:"secondary_converter_serial"`
	MotherboardFirmware      *string                  `json:"motherboard_firmware"`
	Motherboard              *model.SerialComponent   `json:"motherboard"`
	PowerSupply              *model.SerialComponent   `json:"power_supply"`
	PrimaryCommBoard         *model.SerialComponent   `json:"primary_comm_board"`
	SecondaryCommBoard       *model.SerialComponent   `json:"secondary_comm_board"`
	Amplifiers               *[]model.SerialComponent `json:"amplifiers"`
	Notes                    *string                  `json:"notes"`
}

// productResponse は機器情報のAPIレスポンス。
type productResponse struct {
	ID string `json:"id"`
	productPayload
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Create は機器レコードを作成する。
// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenMalformedError())
		return
	}

	var req productPayload
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), toProduct(&req), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toProductResponse(created))
}

// Get は機器詳細を取得する。
// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductResponse(p))
}

// List は全機器の一覧を返す。
// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]productResponse, len(products))
	for i, p := range products {
		results[i] = toProductResponse(p)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// Update は機器レコードを部分更新する。
// ボディに含まれないフィールドは変更されない。
// PATCH /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenMalformedError())
		return
	}

	var req productPatch
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.changes(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductResponse(updated))
}

// Delete は機器レコードを削除する。
// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenMalformedError())
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// changes は非nilのフィールドのみをカラム名キーのマップに変換する。
func (p *productPatch) changes() map[string]any {
	changes := make(map[string]any)

	setString := func(col string, v *string) {
		if v != nil {
			changes[col] = *v
		}
	}
	setComponent := func(col string, v *model.SerialComponent) {
		if v != nil {
			changes[col] = *v
		}
	}

	setString("tag", p.Tag)
	setString("unit_number", p.UnitNumber)
	setString("installed_at", p.InstalledAt)
	setString("updated_date", p.UpdatedDate)
	setString("warranty_until", p.WarrantyUntil)
	setString("unit_model", p.UnitModel)
	setString("existing_power", p.ExistingPower)
	setString("proposal_status", p.ProposalStatus)
	setString("deployment_status", p.DeploymentStatus)
	setString("region", p.Region)
	setString("site", p.Site)
	setString("latitude", p.Latitude)
	setString("longitude", p.Longitude)
	setString("mount_type", p.MountType)
	setString("azimuth", p.Azimuth)
	setString("primary_repeater", p.PrimaryRepeater)
	setString("secondary_repeater", p.SecondaryRepeater)
	setString("radio_firmware", p.RadioFirmware)
	setString("melody_type", p.MelodyType)
	setString("alarm_priority", p.AlarmPriority)
	setString("primary_channel_id", p.PrimaryChannelID)
	setString("secondary_channel_id", p.SecondaryChannelID)
	setString("primary_radio_serial", p.PrimaryRadioSerial)
	setString("primary_radio_model", p.PrimaryRadioModel)
	setString("secondary_radio_serial", p.SecondaryRadioSerial)
	setString("secondary_radio_model", p.SecondaryRadioModel)
	setString("primary_converter_serial", p.PrimaryConverterSerial)
	setString("secondary_converter_serial", p.SecondaryConverterSerial)
	setString("motherboard_firmware", p.MotherboardFirmware)
	setComponent("motherboard", p.Motherboard)
	setComponent("power_supply", p.PowerSupply)
	setComponent("primary_comm_board", p.PrimaryCommBoard)
	setComponent("secondary_comm_board", p.SecondaryCommBoard)
	if p.Amplifiers != nil {
		changes["amplifiers"] = *p.Amplifiers
	}
	setString("notes", p.Notes)

	return changes
}

// toProduct はリクエストボディからmodel.Productに変換する。
func toProduct(req *productPayload) *model.Product {
	return &model.Product{
		Tag:                      req.Tag,
		UnitNumber:               req.UnitNumber,
		InstalledAt:              req.InstalledAt,
		UpdatedDate:              req.UpdatedDate,
		WarrantyUntil:            req.WarrantyUntil,
		UnitModel:                req.UnitModel,
		ExistingPower:            req.ExistingPower,
		ProposalStatus:           req.ProposalStatus,
		DeploymentStatus:         req.DeploymentStatus,
		Region:                   req.Region,
		Site:                     req.Site,
		Latitude:                 req.Latitude,
		Longitude:                req.Longitude,
		MountType:                req.MountType,
		Azimuth:                  req.Azimuth,
		PrimaryRepeater:          req.PrimaryRepeater,
		SecondaryRepeater:        req.SecondaryRepeater,
		RadioFirmware:            req.RadioFirmware,
		MelodyType:               req.MelodyType,
		AlarmPriority:            req.AlarmPriority,
		PrimaryChannelID:         req.PrimaryChannelID,
		SecondaryChannelID:       req.SecondaryChannelID,
		PrimaryRadioSerial:       req.PrimaryRadioSerial,
		PrimaryRadioModel:        req.PrimaryRadioModel,
		SecondaryRadioSerial:     req.SecondaryRadioSerial,
		SecondaryRadioModel:      req.SecondaryRadioModel,
		PrimaryConverterSerial:   req.PrimaryConverterSerial,
		SecondaryConverterSerial: req.SecondaryConverterSerial,
		MotherboardFirmware:      req.MotherboardFirmware,
		Motherboard:              req.Motherboard,
		PowerSupply:              req.PowerSupply,
		PrimaryCommBoard:         req.PrimaryCommBoard,
		SecondaryCommBoard:       req.SecondaryCommBoard,
		Amplifiers:               req.Amplifiers,
		Notes:                    req.Notes,
	}
}

// toProductResponse はmodel.ProductからAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	amplifiers := p.Amplifiers
	if amplifiers == nil {
		amplifiers = []model.SerialComponent{}
	}
	return productResponse{
		ID: p.ID,
		productPayload: productPayload{
			Tag:                      p.Tag,
			UnitNumber:               p.UnitNumber,
			InstalledAt:              p.InstalledAt,
			UpdatedDate:              p.UpdatedDate,
			WarrantyUntil:            p.WarrantyUntil,
			UnitModel:                p.UnitModel,
			ExistingPower:            p.ExistingPower,
			ProposalStatus:           p.ProposalStatus,
			DeploymentStatus:         p.DeploymentStatus,
			Region:                   p.Region,
			Site:                     p.Site,
			Latitude:                 p.Latitude,
			Longitude:                p.Longitude,
			MountType:                p.MountType,
			Azimuth:                  p.Azimuth,
			PrimaryRepeater:          p.PrimaryRepeater,
			SecondaryRepeater:        p.SecondaryRepeater,
			RadioFirmware:            p.RadioFirmware,
			MelodyType:               p.MelodyType,
			AlarmPriority:            p.AlarmPriority,
			PrimaryChannelID:         p.PrimaryChannelID,
			SecondaryChannelID:       p.SecondaryChannelID,
			PrimaryRadioSerial:       p.PrimaryRadioSerial,
			PrimaryRadioModel:        p.PrimaryRadioModel,
			SecondaryRadioSerial:     p.SecondaryRadioSerial,
			SecondaryRadioModel:      p.SecondaryRadioModel,
			PrimaryConverterSerial:   p.PrimaryConverterSerial,
			SecondaryConverterSerial: p.SecondaryConverterSerial,
			MotherboardFirmware:      p.MotherboardFirmware,
			Motherboard:              p.Motherboard,
			PowerSupply:              p.PowerSupply,
			PrimaryCommBoard:         p.PrimaryCommBoard,
			SecondaryCommBoard:       p.SecondaryCommBoard,
			Amplifiers:               amplifiers,
			Notes:                    p.Notes,
		},
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt.Format(timeFormat),
		UpdatedAt: p.UpdatedAt.Format(timeFormat),
	}
}
