package adapthttp

import (
	"errors"
	"net/http"

	"baclog/internal/app"
	"baclog/internal/domain"
)

// statusForAppError maps the application error taxonomy onto HTTP statuses.
// Store outages are 503 so clients keep showing the last known estimate;
// integrity violations are 500 because they mark a server-side bug.
func statusForAppError(err error) int {
	switch {
	case errors.Is(err, app.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, app.ErrDataIntegrity):
		return http.StatusInternalServerError
	case errors.Is(err, app.ErrInvalidPrediction):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) estimateResponse(est domain.BACEstimate) map[string]any {
	return map[string]any{
		"estimate":        est,
		"level":           s.coords.Engine().Level(est.BAC),
		"possibleEffects": app.PossibleEffects(est.BAC),
	}
}

func (s *Server) handleBACCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	est, ok := s.coords.For(user.ID).CurrentEstimate()
	if !ok {
		// Nothing published yet; the client may POST /bac/recompute.
		writeJSON(w, http.StatusOK, map[string]any{"estimate": nil})
		return
	}
	writeJSON(w, http.StatusOK, s.estimateResponse(est))
}

func (s *Server) handleBACRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())
	coord := s.coords.For(user.ID)

	if err := coord.RequestRecompute(r.Context()); err != nil {
		writeError(w, statusForAppError(err), err)
		return
	}
	est, ok := coord.CurrentEstimate()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"estimate": nil})
		return
	}
	writeJSON(w, http.StatusOK, s.estimateResponse(est))
}

func (s *Server) handleBACPredict(w http.ResponseWriter, r *http.Request) {
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
	grams := body.AlcoholGrams
	if grams == 0 && body.VolumeMl > 0 {
		grams = s.drinks.DeriveAlcoholGrams(body.VolumeMl, body.ABVPercent)
	}

	hypothetical := domain.DrinkRecord{
		ID:           "what-if",
		UserID:       user.ID,
		Name:         body.Name,
		AlcoholGrams: grams,
	}
	est, err := s.coords.For(user.ID).Predict(r.Context(), hypothetical)
	if err != nil {
		writeError(w, statusForAppError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.estimateResponse(est))
}

func (s *Server) handleBACEffects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	bac := floatQuery(r, "bac", -1)
	if bac < 0 {
		writeError(w, http.StatusBadRequest, errors.New("bac query parameter must be a non-negative number"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bac": bac, "effects": app.PossibleEffects(bac)})
}
