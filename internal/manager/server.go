package manager

import (
	"github.com/gin-gonic/gin"

	"github.com/aerius-tss/gg18-signer/internal/authn"
	"github.com/aerius-tss/gg18-signer/internal/metrics"
)

// Router builds the gin engine with the auth middleware of §6 applied
// per row: Public/Admin JWT roles on the user endpoints, an IP allow-list
// on every signer endpoint (§9 open question (b)).
func (s *Server) Router(verifier *authn.Verifier, allowList *authn.AllowList) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/sign", verifier.RequireRole(authn.RolePublic), s.PostSign)
	r.GET("/signing_result/:uuid", verifier.RequireRole(authn.RolePublic), s.GetSigningResult)

	r.POST("/key_gen_request", verifier.RequireRole(authn.RoleAdmin), s.PostKeyGenRequest)
	r.GET("/key_gen_result/:uuid", verifier.RequireRole(authn.RoleAdmin), s.GetKeyGenResult)

	signer := r.Group("/", allowList.Middleware())
	signer.POST("/signupsign", verifier.RequireRole(authn.RoleSigner), s.PostSignupSign)
	signer.POST("/signupkeygen", s.PostSignupKeygen)
	signer.POST("/set", s.PostSet)
	signer.POST("/get", s.PostGet)
	signer.POST("/update_signing_result", s.PostUpdateSigningResult)

	return r
}
