package adapthttp

import (
	"net/http"
	"time"

	"baclog/internal/app"
)

type drinkBody struct {
	Name         string  `json:"name"`
	AlcoholGrams float64 `json:"alcoholGrams"`
	VolumeMl     float64 `json:"volumeMl"`
	ABVPercent   float64 `json:"abvPercent"`
	ConsumedAt   string  `json:"consumedAt"`
}

func (b drinkBody) toInput() (app.LogDrinkInput, error) {
	in := app.LogDrinkInput{
		Name:         b.Name,
		AlcoholGrams: b.AlcoholGrams,
		VolumeMl:     b.VolumeMl,
		ABVPercent:   b.ABVPercent,
	}
	if b.ConsumedAt != "" {
		t, err := time.Parse(time.RFC3339, b.ConsumedAt)
		if err != nil {
			return in, err
		}
		in.ConsumedAt = t
	}
	return in, nil
}

func (s *Server) handleDrinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	var body drinkBody
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in, err := body.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := s.drinks.LogDrink(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, statusForAppError(err), err)
		return
	}

	resp := map[string]any{
		"drink":          rec,
		"standardDrinks": s.drinks.StandardDrinks(rec.AlcoholGrams),
	}
	if est, ok := s.coords.For(user.ID).CurrentEstimate(); ok {
		resp["estimate"] = est
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDrinksRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())
	limit := intQuery(r, "limit", 20)

	items, err := s.drinks.ListRecent(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleDrinksRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	var body struct {
		ID string `json:"id"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	removed, err := s.drinks.RemoveDrink(r.Context(), user.ID, body.ID)
	if err != nil {
		writeError(w, statusForAppError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (s *Server) handleDrinksUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	removed, id, err := s.drinks.UndoLast(r.Context(), user.ID)
	if err != nil {
		writeError(w, statusForAppError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "id": id})
}
