package debugapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qfwfq/corespot/session"
)

// handlers wraps the session a debug server was opened against, mirroring
// the teacher's XHandlers-wrapping-a-service-layer shape.
type handlers struct {
	sess *session.Session
}

// stats reports GET /debug/stats: high-level counters safe to read from the
// embedding thread (spec.md §6, "safe to call ... but may return stale
// data").
func (h *handlers) stats(c *gin.Context) {
	tables := h.sess.Tables()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"logged_in": h.sess.IsLoggedIn(),
		"queue_len": h.sess.QueueLen(),
		"channels":  h.sess.ChannelLen(),
		"playlists": tables.Container.Len(),
		"tracks":    tables.Tracks.Len(),
		"albums":    tables.Albums.Len(),
		"artists":   tables.Artists.Len(),
		"images":    tables.Images.Len(),
		"users":     tables.Users.Len(),
	})
}

// playlists reports GET /debug/playlists: the container's current order and
// each playlist's load state.
func (h *handlers) playlists(c *gin.Context) {
	tables := h.sess.Tables()
	n := tables.Container.Len()
	out := make([]gin.H, 0, n)
	for i := 0; i < n; i++ {
		p := tables.Container.At(i)
		out = append(out, gin.H{
			"id":       p.ID.String(),
			"position": p.Position,
			"name":     p.Name,
			"state":    p.GetState().String(),
			"tracks":   len(p.Tracks),
		})
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "playlists": out})
}

// changePlaylistRequest is the body for the one mutating endpoint. The
// binding tag makes gin's embedded go-playground/validator reject an empty
// xmlOps before the handler ever touches the session, the same
// ShouldBindJSON-plus-struct-tag idiom the teacher's handlers use.
type changePlaylistRequest struct {
	XMLOps string `json:"xmlOps" binding:"required"`
}

// changePlaylist handles POST /debug/playlists/:id/change: it looks the
// playlist up by its hash key and posts a PLAYLIST_CHANGE request with the
// caller-supplied ops XML, the same call a real client makes through
// Session.ChangePlaylist.
func (h *handlers) changePlaylist(c *gin.Context) {
	var body changePlaylistRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}

	p, err := h.sess.FindPlaylist(c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if isNotLoaded(err) {
			status = http.StatusNotFound
		} else if isInvalid(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"status": "error", "error": err.Error()})
		return
	}

	h.sess.ChangePlaylist(p, []byte(body.XMLOps))
	c.JSON(http.StatusAccepted, gin.H{"status": "ok", "message": "playlist change queued"})
}

// isNotLoaded and isInvalid are the status-code-mapping helpers the
// teacher's master.go plays with isNotFound/isValidationError.
func isNotLoaded(err error) bool {
	return errors.Is(err, session.ErrResourceNotLoaded)
}

func isInvalid(err error) bool {
	return errors.Is(err, session.ErrInvalidIndata)
}
