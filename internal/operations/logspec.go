/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lla-dane/FHE-AES128/common/flogging"
)

// LogSpec is the payload of the logspec endpoint.
type LogSpec struct {
	Spec string `json:"spec,omitempty"`
}

// SpecHandler reads and updates the active logging specification.
type SpecHandler struct {
	Logging *flogging.Logging
	Logger  Logger
}

// NewSpecHandler returns a handler bound to the global logging system.
func NewSpecHandler(logger Logger) *SpecHandler {
	return &SpecHandler{
		Logging: flogging.Global,
		Logger:  logger,
	}
}

func (h *SpecHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPut:
		var logSpec LogSpec
		decoder := json.NewDecoder(req.Body)
		if err := decoder.Decode(&logSpec); err != nil {
			sendResponse(h.Logger, resp, http.StatusBadRequest, err)
			return
		}
		req.Body.Close()

		if err := h.Logging.ActivateSpec(logSpec.Spec); err != nil {
			sendResponse(h.Logger, resp, http.StatusBadRequest, err)
			return
		}
		resp.WriteHeader(http.StatusNoContent)

	case http.MethodGet:
		sendResponse(h.Logger, resp, http.StatusOK, &LogSpec{Spec: h.Logging.Spec()})

	default:
		err := fmt.Errorf("invalid request method: %s", req.Method)
		sendResponse(h.Logger, resp, http.StatusBadRequest, err)
	}
}
