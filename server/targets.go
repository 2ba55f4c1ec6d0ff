package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	emuerrors "github.com/jrsteele09/go-cognito-emulator/internal/errors"
	"github.com/jrsteele09/go-cognito-emulator/internal/metrics"
	"github.com/jrsteele09/go-cognito-emulator/token"
	"github.com/jrsteele09/go-cognito-emulator/userpool"
)

const (
	amzTargetHeader = "X-Amz-Target"
	amzJSONContent  = "application/x-amz-json-1.1"
)

// targetHandler processes one decoded operation body. A nil result with a
// nil error serializes as a JSON null, matching the emulated service's
// "no result" responses.
type targetHandler func(body []byte) (any, error)

func (s *Server) initTargets() {
	s.targets = map[string]targetHandler{
		"GetUser":              s.GetUser,
		"AdminGetUser":         s.AdminGetUser,
		"AdminCreateUser":      s.AdminCreateUser,
		"ListUsers":            s.ListUsers,
		"CreateUserPoolClient": s.CreateUserPoolClient,
	}
}

// TargetDispatchHandler routes a POST / request to the operation named by
// its X-Amz-Target header.
func (s *Server) TargetDispatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := strings.TrimPrefix(r.Header.Get(amzTargetHeader), targetPrefix)
		handler, ok := s.targets[target]
		if !ok {
			s.writeError(w, target, emuerrors.InvalidParameter("unsupported target "+target))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, target, emuerrors.InvalidParameter("unable to read request body"))
			return
		}

		result, err := handler(body)
		if err != nil {
			s.writeError(w, target, err)
			return
		}

		metrics.RecordTargetRequest(target, "ok")
		w.Header().Set("Content-Type", amzJSONContent)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			s.logger.Err(err).Str("target", target).Msg("failed to encode response")
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, target string, err error) {
	code := emuerrors.Code(err)
	metrics.RecordTargetRequest(target, code)
	s.logger.Info().Err(err).Str("target", target).Msg("target failed")

	status := http.StatusBadRequest
	if code == "InternalErrorException" {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	var se *emuerrors.ServiceError
	if emuerrors.As(err, &se) {
		message = se.Message
	}

	w.Header().Set("Content-Type", amzJSONContent)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"__type":  code,
		"message": message,
	})
}

type getUserInput struct {
	AccessToken string
}

type getUserOutput struct {
	Username       string
	UserAttributes []userpool.Attribute
	MFAOptions     []userpool.MFAOption `json:",omitempty"`
}

// GetUser resolves the caller's identity from a bearer token: decode the
// claims, find the pool owning the token's client id, then look the user up
// by the token's username.
func (s *Server) GetUser(body []byte) (any, error) {
	var input getUserInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, emuerrors.InvalidParameter("unable to parse request body")
	}

	claims, err := token.Decode(input.AccessToken)
	if err != nil {
		s.logger.Info().Msg("unable to decode token")
		return nil, err
	}
	if !claims.HasIdentity() {
		return nil, nil
	}

	pool, err := s.cognito.GetUserPoolForClientID(claims.ClientID)
	if err != nil {
		return nil, err
	}

	user, err := pool.GetUserByUsername(claims.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, emuerrors.UserNotFound(claims.Username)
	}

	return &getUserOutput{
		Username:       user.Username,
		UserAttributes: user.Attributes,
		MFAOptions:     user.MFAOptions,
	}, nil
}

type adminGetUserInput struct {
	UserPoolID string `json:"UserPoolId"`
	Username   string
}

type adminUserOutput struct {
	Username             string
	UserAttributes       []userpool.Attribute
	Enabled              bool
	UserStatus           userpool.UserStatus
	UserCreateDate       int64
	UserLastModifiedDate int64
	MFAOptions           []userpool.MFAOption `json:",omitempty"`
}

func (s *Server) AdminGetUser(body []byte) (any, error) {
	var input adminGetUserInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, emuerrors.InvalidParameter("unable to parse request body")
	}

	pool, err := s.cognito.GetUserPool(input.UserPoolID)
	if err != nil {
		return nil, err
	}

	user, err := pool.GetUserByUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, emuerrors.UserNotFound(input.Username)
	}
	return adminUser(user), nil
}

type adminCreateUserInput struct {
	UserPoolID        string `json:"UserPoolId"`
	Username          string
	TemporaryPassword string
	UserAttributes    []userpool.Attribute
}

func (s *Server) AdminCreateUser(body []byte) (any, error) {
	var input adminCreateUserInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, emuerrors.InvalidParameter("unable to parse request body")
	}
	if input.Username == "" {
		return nil, emuerrors.InvalidParameter("Username is required")
	}

	pool, err := s.cognito.GetUserPool(input.UserPoolID)
	if err != nil {
		return nil, err
	}

	hash, err := userpool.HashPassword(input.TemporaryPassword)
	if err != nil {
		return nil, err
	}

	user := &userpool.User{
		Username:   input.Username,
		Password:   hash,
		Attributes: input.UserAttributes,
		Enabled:    true,
		UserStatus: userpool.UserStatusForceChangePassword,
	}
	if err := pool.SaveUser(user); err != nil {
		return nil, err
	}

	return map[string]any{"User": adminUser(user)}, nil
}

type listUsersInput struct {
	UserPoolID string `json:"UserPoolId"`
}

func (s *Server) ListUsers(body []byte) (any, error) {
	var input listUsersInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, emuerrors.InvalidParameter("unable to parse request body")
	}

	pool, err := s.cognito.GetUserPool(input.UserPoolID)
	if err != nil {
		return nil, err
	}

	users, err := pool.ListUsers()
	if err != nil {
		return nil, err
	}

	outputs := make([]*adminUserOutput, 0, len(users))
	for _, user := range users {
		outputs = append(outputs, adminUser(user))
	}
	return map[string]any{"Users": outputs}, nil
}

type createUserPoolClientInput struct {
	UserPoolID string `json:"UserPoolId"`
	ClientName string
}

func (s *Server) CreateUserPoolClient(body []byte) (any, error) {
	var input createUserPoolClientInput
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, emuerrors.InvalidParameter("unable to parse request body")
	}
	if input.UserPoolID == "" {
		return nil, emuerrors.InvalidParameter("UserPoolId is required")
	}

	record, err := s.cognito.CreateAppClient(input.UserPoolID, input.ClientName)
	if err != nil {
		return nil, err
	}
	return map[string]any{"UserPoolClient": record}, nil
}

func adminUser(user *userpool.User) *adminUserOutput {
	return &adminUserOutput{
		Username:             user.Username,
		UserAttributes:       user.Attributes,
		Enabled:              user.Enabled,
		UserStatus:           user.UserStatus,
		UserCreateDate:       user.UserCreateDate,
		UserLastModifiedDate: user.UserLastModifiedDate,
		MFAOptions:           user.MFAOptions,
	}
}
