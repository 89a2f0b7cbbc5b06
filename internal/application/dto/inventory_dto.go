package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReplenishmentCandidateResponse línea propuesta por GET /api/inventory/replenishment/proposal.
type ReplenishmentCandidateResponse struct {
	ProductCode          string          `json:"product_code"`
	Description          string          `json:"description"`
	Department           string          `json:"department,omitempty"`
	Unit                 string          `json:"unit"`
	UnitConversionFactor decimal.Decimal `json:"unit_conversion_factor"`
	StockOrigin          decimal.Decimal `json:"stock_origin"`
	StockDestination     decimal.Decimal `json:"stock_destination"`
	MinimalStock         decimal.Decimal `json:"minimal_stock"`
	MaximumStock         decimal.Decimal `json:"maximum_stock"`
	ToTransfer           decimal.Decimal `json:"to_transfer"`
	Location             string          `json:"location,omitempty"`
}

// ReplenishmentProposalResponse propuesta completa para un par origen/destino.
type ReplenishmentProposalResponse struct {
	Origin      string                           `json:"origin"`
	Destination string                           `json:"destination"`
	Total       int                              `json:"total"`
	Candidates  []ReplenishmentCandidateResponse `json:"candidates"`
}

// OperationLineRequest línea de un borrador.
type OperationLineRequest struct {
	ProductCode string          `json:"product_code"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateOperationRequest body para POST /api/inventory/operations.
// Con FromProposal y sin Lines, las líneas salen de la propuesta de reposición
// (filtros Department y ProductCode opcionales).
type CreateOperationRequest struct {
	OriginStore      string                 `json:"origin_store"`
	DestinationStore string                 `json:"destination_store"`
	UserCode         string                 `json:"user_code"`
	Comments         string                 `json:"comments,omitempty"`
	EmissionDate     *time.Time             `json:"emission_date,omitempty"`
	Lines            []OperationLineRequest `json:"lines,omitempty"`
	FromProposal     bool                   `json:"from_proposal,omitempty"`
	Department       string                 `json:"department,omitempty"`
	ProductCode      string                 `json:"product_code,omitempty"`
}

// CreateOperationResponse correlativo asignado al borrador.
type CreateOperationResponse struct {
	Correlative int64  `json:"correlative"`
	State       string `json:"state"`
	Lines       int    `json:"lines"`
}

// UpdateCountRequest body para PUT /api/inventory/operations/{correlative}/lines/{code}.
type UpdateCountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ConfirmRequest códigos chequeados por el operador.
type ConfirmRequest struct {
	CountedCodes []string `json:"counted_codes"`
}

// ConfirmResponse resultado de la confirmación.
type ConfirmResponse struct {
	Correlative int64  `json:"correlative"`
	DocumentNo  string `json:"document_no"`
	State       string `json:"state"`
}

// ReceptionConfirmRequest chequeo en recepción: códigos y cantidad contada por código.
type ReceptionConfirmRequest struct {
	CountedCodes []string                   `json:"counted_codes"`
	Counts       map[string]decimal.Decimal `json:"counts"`
}

// ReceptionConfirmResponse resultado del chequeo en recepción.
type ReceptionConfirmResponse struct {
	Correlative int64  `json:"correlative"`
	DocumentNo  string `json:"document_no"`
	State       string `json:"state"`
	Differences bool   `json:"differences"`
}

// OperationLineResponse línea de una operación.
type OperationLineResponse struct {
	Line                 int             `json:"line"`
	ProductCode          string          `json:"product_code"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	FromStore            string          `json:"from_store"`
	ToStore              string          `json:"to_store"`
	Unit                 string          `json:"unit"`
	UnitConversionFactor decimal.Decimal `json:"unit_conversion_factor"`
	Location             string          `json:"location,omitempty"`
}

// OperationResponse cabecera y líneas.
type OperationResponse struct {
	Correlative      int64                   `json:"correlative"`
	OperationType    string                  `json:"operation_type"`
	State            string                  `json:"state"`
	Wait             bool                    `json:"wait"`
	StatusMarker     string                  `json:"status_marker"`
	DocumentNo       string                  `json:"document_no,omitempty"`
	Differences      bool                    `json:"differences"`
	EmissionDate     time.Time               `json:"emission_date"`
	OriginStore      string                  `json:"origin_store"`
	DestinationStore string                  `json:"destination_store"`
	UserCode         string                  `json:"user_code"`
	Comments         string                  `json:"comments,omitempty"`
	Total            decimal.Decimal         `json:"total"`
	Lines            []OperationLineResponse `json:"lines"`
}

// StockResponse stock actual de un producto en una tienda.
type StockResponse struct {
	ProductCode string          `json:"product_code"`
	StoreCode   string          `json:"store_code"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ParameterRequest body para PUT /api/inventory/parameters/{store}/{product}.
type ParameterRequest struct {
	MinimalStock decimal.Decimal `json:"minimal_stock"`
	MaximumStock decimal.Decimal `json:"maximum_stock"`
	Location     string          `json:"location,omitempty"`
}

// ParameterResponse mínimo/máximo vigentes; configured=false cuando no hay fila.
type ParameterResponse struct {
	ProductCode  string          `json:"product_code"`
	StoreCode    string          `json:"store_code"`
	MinimalStock decimal.Decimal `json:"minimal_stock"`
	MaximumStock decimal.Decimal `json:"maximum_stock"`
	Location     string          `json:"location,omitempty"`
	Configured   bool            `json:"configured"`
}

// StoreResponse tienda disponible como origen o destino.
type StoreResponse struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}
