// Package openapi builds the OpenAPI 3 description of the surat HTTP API.
package openapi

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// Options controls the generated document.
type Options struct {
	BaseURL string
	Version string
	// ProtectUsers marks /api/users operations as requiring HTTP Basic auth.
	ProtectUsers bool
}

const tagAuth, tagUsers = "auth", "users"

// Generate returns the document for the login and user-management API.
func Generate(opts Options) *openapi3.T {
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Surat Admin API",
			Description: "Login and administrator account management for the school correspondence system.",
			Version:     version,
		},
		Tags: openapi3.Tags{
			{Name: tagAuth, Description: "Credential checks"},
			{Name: tagUsers, Description: "Administrator accounts"},
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	var usersSecurity *openapi3.SecurityRequirements
	if opts.ProtectUsers {
		doc.Components.SecuritySchemes["basicAuth"] = &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "http",
				Scheme:      "basic",
				Description: "Email and password of an active admin account.",
			},
		}
		usersSecurity = &openapi3.SecurityRequirements{{"basicAuth": {}}}
	}

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addUserPaths(doc, usersSecurity)
	return doc
}

func addAuthPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/auth/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{tagAuth},
			OperationID: "login",
			Summary:     "Check credentials",
			Description: "Returns the trimmed identity when the email exists, the account is active and the password matches. " +
				"The error type names the failing check: email, account or password.",
			RequestBody: jsonBody(ref("LoginRequest")),
			Responses:   newResponses("200", "Authenticated", dataOf(ref("Identity")), 400, 401, 500),
		},
	})
}

func addUserPaths(doc *openapi3.T, security *openapi3.SecurityRequirements) {
	idParam := &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithDescription("Account ID").
			WithSchema(openapi3.NewStringSchema()),
	}

	doc.Paths.Set("/api/users", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagUsers},
			OperationID: "listUsers",
			Summary:     "List accounts, newest first",
			Security:    security,
			Responses:   newResponses("200", "Accounts", dataOf(arrayOf(ref("AdminUser"))), withAuthErrors(security, 500)...),
		},
		Post: &openapi3.Operation{
			Tags:        []string{tagUsers},
			OperationID: "createUser",
			Summary:     "Create an account",
			Security:    security,
			RequestBody: jsonBody(ref("NewUser")),
			Responses:   newResponses("200", "Created account", dataOf(ref("AdminUser")), withAuthErrors(security, 400, 500)...),
		},
	})

	doc.Paths.Set("/api/users/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			Tags:        []string{tagUsers},
			OperationID: "getUser",
			Summary:     "Read one account",
			Security:    security,
			Responses:   newResponses("200", "Account", dataOf(ref("AdminUser")), withAuthErrors(security, 404, 500)...),
		},
		Put: &openapi3.Operation{
			Tags:        []string{tagUsers},
			OperationID: "updateUser",
			Summary:     "Partially update an account",
			Description: "Only fields present in the body are changed. An empty password keeps the current one.",
			Security:    security,
			RequestBody: jsonBody(ref("UserPatch")),
			Responses:   newResponses("200", "Updated account", dataOf(ref("AdminUser")), withAuthErrors(security, 400, 404, 500)...),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{tagUsers},
			OperationID: "deleteUser",
			Summary:     "Delete an account",
			Security:    security,
			Responses:   newResponses("200", "Deleted", ref("SuccessResponse"), withAuthErrors(security, 404, 500)...),
		},
	})
}

func withAuthErrors(security *openapi3.SecurityRequirements, codes ...int) []int {
	if security == nil {
		return codes
	}
	return append(codes, 401, 403)
}

// ─── Schemas ────────────────────────────────────────────────────────────────

func componentSchemas() openapi3.Schemas {
	str := func(desc string) *openapi3.SchemaRef {
		return describe(openapi3.NewStringSchema(), desc)
	}
	boolean := func(desc string) *openapi3.SchemaRef {
		return describe(openapi3.NewBoolSchema(), desc)
	}
	email := openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithFormat("email"))
	timestamp := openapi3.NewSchemaRef("", openapi3.NewDateTimeSchema())
	role := openapi3.NewSchemaRef("", &openapi3.Schema{
		Type:        &openapi3.Types{"string"},
		Description: "admin or user",
		Example:     "user",
	})

	return openapi3.Schemas{
		"AdminUser": objectSchema(openapi3.Schemas{
			"id":         str("Opaque account ID"),
			"name":       str(""),
			"email":      email,
			"role":       role,
			"is_active":  boolean("Inactive accounts cannot sign in"),
			"created_at": timestamp,
			"updated_at": timestamp,
		}, "id", "name", "email", "role", "is_active", "created_at", "updated_at"),

		"Identity": objectSchema(openapi3.Schemas{
			"id":        str(""),
			"email":     email,
			"name":      str(""),
			"role":      role,
			"is_active": boolean(""),
		}, "id", "email", "name", "role", "is_active"),

		"LoginRequest": objectSchema(openapi3.Schemas{
			"email":    email,
			"password": openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithFormat("password")),
		}, "email", "password"),

		"NewUser": objectSchema(openapi3.Schemas{
			"name":      str(""),
			"email":     email,
			"password":  openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithFormat("password").WithMinLength(1)),
			"role":      role,
			"is_active": boolean("Defaults to true"),
		}, "name", "email", "password"),

		"UserPatch": objectSchema(openapi3.Schemas{
			"name":      str(""),
			"email":     email,
			"password":  describe(openapi3.NewStringSchema().WithFormat("password"), "Blank keeps the current password"),
			"role":      role,
			"is_active": boolean(""),
		}),

		"SuccessResponse": objectSchema(openapi3.Schemas{
			"success": boolean(""),
		}, "success"),

		"ErrorResponse": objectSchema(openapi3.Schemas{
			"error": objectSchema(openapi3.Schemas{
				"code":    openapi3.NewSchemaRef("", openapi3.NewInt32Schema()),
				"message": str("Human-readable message"),
				"type": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        &openapi3.Types{"string"},
					Description: "Failure kind",
					Enum: []interface{}{
						"validation", "not_found", "duplicate_email",
						"email", "account", "password", "storage", "system",
					},
				}),
				"fields": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:                 &openapi3.Types{"object"},
					Description:          "Per-field hints keyed by input name",
					AdditionalProperties: openapi3.AdditionalProperties{Schema: openapi3.NewSchemaRef("", openapi3.NewStringSchema())},
				}),
			}, "code", "message", "type"),
		}, "error"),
	}
}

func describe(s *openapi3.Schema, desc string) *openapi3.SchemaRef {
	s.Description = desc
	return openapi3.NewSchemaRef("", s)
}

func objectSchema(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: items,
		},
	}
}

// dataOf wraps schema in the {"data": ...} success envelope.
func dataOf(schema *openapi3.SchemaRef) *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{"data": schema}, "data")
}

func jsonBody(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchemaRef(schema),
	}
}

var errorDescriptions = map[int]string{
	400: "Validation failed or email already exists",
	401: "Credentials rejected",
	403: "Admin role required",
	404: "Account not found",
	500: "Internal server error",
}

// newResponses builds the success response plus the listed error responses,
// all of which share the ErrorResponse envelope.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes ...int) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	unexpected := "Unexpected error"
	responses.Set("default", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &unexpected,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})
	for _, code := range errorCodes {
		desc := errorDescriptions[code]
		responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
