package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	p, err := h.accounts.Authenticate(req.Account, req.Password)
	if err != nil {
		respondWithError(c, NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, "invalid account or password", nil))
		return
	}
	token, expires, err := h.tokens.Issue(p)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires, "principal": p})
}

func (h *handler) me(c *gin.Context) {
	p := principal(c)
	leaderID, hasLeader, err := h.svc.LeaderFor(c.Request.Context(), p.StaffNo)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	body := gin.H{"principal": p, "role_label": displayLabels.Role[p.Role]}
	if hasLeader {
		body["leader_id"] = leaderID
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) labels(c *gin.Context) {
	c.JSON(http.StatusOK, displayLabels)
}
