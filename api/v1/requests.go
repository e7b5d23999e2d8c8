package v1

import (
	"encoding/json"
)

// Method names of the Applications service.
const (
	MethodAuthenticate         = "Authenticate"
	MethodListApplications     = "ListApplications"
	MethodGetApplication       = "GetApplication"
	MethodListCommits          = "ListCommits"
	MethodGetReconciledObjects = "GetReconciledObjects"
	MethodGetChildObjects      = "GetChildObjects"
	MethodGetGithubDeviceCode  = "GetGithubDeviceCode"
	MethodGetGithubAuthStatus  = "GetGithubAuthStatus"
	MethodAddApplication       = "AddApplication"
)

// ============================================================
// Authentication
// ============================================================

type AuthenticateRequest struct {
	// providerName selects the git provider, e.g. "github". It is also a path parameter.
	ProviderName string `json:"providerName,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
}

type AuthenticateResponse struct {
	// token is the session JWT to send as "Authorization: token <token>".
	Token string `json:"token,omitempty"`
}

type GetGithubDeviceCodeRequest struct{}

type GetGithubDeviceCodeResponse struct {
	UserCode      string `json:"userCode,omitempty"`
	DeviceCode    string `json:"deviceCode,omitempty"`
	ValidationURI string `json:"validationURI,omitempty"`

	// interval is the minimum polling interval in seconds.
	Interval int32 `json:"interval,omitempty"`
}

type GetGithubAuthStatusRequest struct {
	DeviceCode string `json:"deviceCode,omitempty"`
}

type GetGithubAuthStatusResponse struct {
	AccessToken string `json:"accessToken,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ============================================================
// Applications
// ============================================================

type ListApplicationsRequest struct {
	Namespace string `json:"namespace,omitempty"`
}

type ListApplicationsResponse struct {
	Applications []Application `json:"applications,omitempty"`
}

type GetApplicationRequest struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

type GetApplicationResponse struct {
	Application *Application `json:"application,omitempty"`
}

// AddApplicationRequest registers a new application. All fields are always
// serialized, matching what the add form submits.
type AddApplicationRequest struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	URL       string `json:"url"`
	Path      string `json:"path"`
	AutoMerge bool   `json:"autoMerge"`
}

type AddApplicationResponse struct {
	Success     bool         `json:"success,omitempty"`
	Application *Application `json:"application,omitempty"`
}

// ============================================================
// Commits
// ============================================================

// ListCommitsPage is the page selector of a ListCommitsRequest. At most one
// variant can be set; a nil Page requests the first page.
type ListCommitsPage interface {
	isListCommitsPage()
}

// PageToken selects a page by the token returned as nextPageToken.
type PageToken int32

func (PageToken) isListCommitsPage() {}

type ListCommitsRequest struct {
	Name      string
	Namespace string
	PageSize  int32
	Page      ListCommitsPage
}

type listCommitsRequestJSON struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken *int32 `json:"pageToken,omitempty"`
}

// MarshalJSON emits the key of the selected page variant only when one is set.
func (r ListCommitsRequest) MarshalJSON() ([]byte, error) {
	out := listCommitsRequestJSON{
		Name:      r.Name,
		Namespace: r.Namespace,
		PageSize:  r.PageSize,
	}
	if tok, ok := r.Page.(PageToken); ok {
		v := int32(tok)
		out.PageToken = &v
	}
	return json.Marshal(out)
}

func (r *ListCommitsRequest) UnmarshalJSON(data []byte) error {
	var in listCommitsRequestJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = ListCommitsRequest{
		Name:      in.Name,
		Namespace: in.Namespace,
		PageSize:  in.PageSize,
	}
	if in.PageToken != nil {
		r.Page = PageToken(*in.PageToken)
	}
	return nil
}

type ListCommitsResponse struct {
	Commits       []Commit `json:"commits,omitempty"`
	NextPageToken int32    `json:"nextPageToken,omitempty"`
}

// ============================================================
// Objects
// ============================================================

type GetReconciledObjectsRequest struct {
	// automationName is the Kustomization or HelmRelease name. It is also a path parameter.
	AutomationName      string             `json:"automationName,omitempty"`
	AutomationNamespace string             `json:"automationNamespace,omitempty"`
	AutomationKind      AutomationKind     `json:"automationKind,omitempty"`
	Kinds               []GroupVersionKind `json:"kinds,omitempty"`
}

type GetReconciledObjectsResponse struct {
	Objects []UnstructuredObject `json:"objects,omitempty"`
}

type GetChildObjectsRequest struct {
	GroupVersionKind *GroupVersionKind `json:"groupVersionKind,omitempty"`
	ParentUID        string            `json:"parentUid,omitempty"`
}

type GetChildObjectsResponse struct {
	Objects []UnstructuredObject `json:"objects,omitempty"`
}
