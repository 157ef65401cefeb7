package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/reifyhq/reify/internals/platform"
	"github.com/reifyhq/reify/internals/registry"
)

// registerOrgTools wires organisation-level operations: user catchment
// assignment and the full implementation wipe.
func registerOrgTools(reg *registry.Registry, client *platform.Client) {
	reg.Register(registry.Tool{
		Name:        "find_user",
		Description: "Find a user by name to read their ID and current catchment assignment.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the user", Required: true},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			path := "/user/search/find?name=" + url.QueryEscape(name)
			data, err := client.Call(ctx, http.MethodGet, path, rc.AuthToken, nil)
			if err != nil {
				return formatFailure("search for user", err), nil
			}
			if data == nil {
				return formatEmpty("users"), nil
			}
			return fmt.Sprintf("Found user: %v", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "update_user",
		Description: "Update a user, primarily to assign a catchment.",
		Params: []registry.Param{
			{Name: "id", Type: registry.TypeInteger, Description: "ID of the user", Required: true},
			{Name: "name", Type: registry.TypeString, Description: "Name of the user", Required: true},
			{Name: "username", Type: registry.TypeString, Description: "Login name", Required: true},
			{Name: "phone_number", Type: registry.TypeString, Description: "Phone number"},
			{Name: "email", Type: registry.TypeString, Description: "Email address"},
			{Name: "organisation_id", Type: registry.TypeInteger, Description: "Organisation ID"},
			{Name: "catchment_id", Type: registry.TypeInteger, Description: "Catchment ID to assign"},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			payload := map[string]any{
				"id":             args["id"],
				"name":           name,
				"username":       args["username"],
				"phoneNumber":    args["phone_number"],
				"email":          args["email"],
				"organisationId": args["organisation_id"],
				"catchmentId":    args["catchment_id"],
			}
			path := fmt.Sprintf("/user/%s", renderValue(args["id"]))
			data, err := client.Call(ctx, http.MethodPut, path, rc.AuthToken, payload)
			if err != nil {
				return formatFailure("update user", err), nil
			}
			if data == nil {
				data = payload
			}
			return formatUpdate("User", name, "id", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "delete_implementation",
		Description: "Delete the entire implementation: all metadata and admin configuration. Use only when the document's delete section explicitly requests it.",
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			path := "/implementation/delete?deleteMetadata=true&deleteAdminConfig=true"
			if _, err := client.Call(ctx, http.MethodDelete, path, rc.AuthToken, nil); err != nil {
				return formatFailure("delete implementation", err), nil
			}
			return "Implementation deleted successfully: all metadata and admin configuration removed", nil
		},
	})
}
