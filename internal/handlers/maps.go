package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vancomm/shapesweeper/internal/catalog"
)

type MapsHandler struct {
	logger  *slog.Logger
	catalog catalog.Catalog
}

func NewMapsHandler(logger *slog.Logger, c catalog.Catalog) *MapsHandler {
	return &MapsHandler{logger: logger, catalog: c}
}

func (h MapsHandler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.catalog.Maps(r.Context())
	if errors.Is(err, catalog.ErrEmptyCatalog) {
		sendJSONOrLog(w, h.logger, []MapSummaryDTO{})
		return
	}
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	gallery := make([]MapSummaryDTO, 0, len(maps))
	for _, m := range maps {
		gallery = append(gallery, NewMapSummaryDTO(m))
	}
	sendJSONOrLog(w, h.logger, gallery)
}

func (h MapsHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.Map(r.Context(), r.PathValue("name"))
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSONOrLog(w, h.logger, NewMapDetailDTO(*m))
}
