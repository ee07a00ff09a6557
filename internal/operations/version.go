/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"net/http"
	"runtime"

	"github.com/lla-dane/FHE-AES128/common/metadata"
	"github.com/pkg/errors"
)

// VersionInfo describes the running build and the backend it evaluates on.
type VersionInfo struct {
	Program   string `json:"Program"`
	Version   string `json:"Version,omitempty"`
	CommitSHA string `json:"CommitSHA,omitempty"`
	GoVersion string `json:"GoVersion"`
	Backend   string `json:"Backend,omitempty"`
}

func newVersionInfo(o Options) *VersionInfo {
	return &VersionInfo{
		Program:   metadata.ProgramName,
		Version:   o.Version,
		CommitSHA: metadata.CommitSHA,
		GoVersion: runtime.Version(),
		Backend:   o.Backend,
	}
}

// VersionInfoHandler serves a fixed VersionInfo on GET.
type VersionInfoHandler struct {
	Logger      Logger
	VersionInfo *VersionInfo
}

func (v *VersionInfoHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		sendResponse(v.Logger, resp, http.StatusBadRequest, errors.Errorf("invalid request method: %s", req.Method))
		return
	}
	sendResponse(v.Logger, resp, http.StatusOK, v.VersionInfo)
}
