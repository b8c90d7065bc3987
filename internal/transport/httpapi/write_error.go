package httpapi

import (
	"net/http"

	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
)

func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := MapError(err)
	response.WriteError(w, r, status, code, msg)
}
