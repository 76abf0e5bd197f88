package adapthttp

import (
	"net/http"

	"baclog/internal/domain"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		p, err := s.profile.Get(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})

	case http.MethodPut:
		var body struct {
			Weight float64 `json:"weight"`
			Unit   string  `json:"unit"`
			Gender string  `json:"gender"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := s.profile.Update(r.Context(), user.ID, body.Weight, body.Unit, domain.Gender(body.Gender))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"profile": p})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
