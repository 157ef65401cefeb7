package tools

import (
	"context"
	"fmt"
	"net/http"

	"github.com/reifyhq/reify/internals/platform"
	"github.com/reifyhq/reify/internals/registry"
)

// registerAdminTools wires the location hierarchy and catchment operations.
func registerAdminTools(reg *registry.Registry, client *platform.Client) {
	reg.Register(registry.Tool{
		Name:        "get_location_types",
		Description: "Retrieve the existing location types (address level types) with their IDs and levels.",
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			data, err := client.Call(ctx, http.MethodGet, "/addressLevelType", rc.AuthToken, nil)
			if err != nil {
				return formatFailure("retrieve location types", err), nil
			}
			if data == nil {
				return formatEmpty("location types"), nil
			}
			return formatList(data, "level"), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "create_location_type",
		Description: "Create a location type (e.g., State, District) for hierarchical location setup.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the location type", Required: true},
			{Name: "level", Type: registry.TypeNumber, Description: "Level of the location type (e.g., 3 for State, 2 for District)", Required: true},
			{Name: "parent_id", Type: registry.TypeInteger, Description: "Parent location type ID, if any"},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			payload := map[string]any{"name": name, "level": args["level"]}
			if parent, ok := args["parent_id"]; ok && parent != nil {
				payload["parentId"] = parent
			}
			data, err := client.Call(ctx, http.MethodPost, "/addressLevelType", rc.AuthToken, payload)
			if err != nil {
				return formatFailure("create location type", err), nil
			}
			return formatCreation("Location type", name, "id", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "update_location_type",
		Description: "Update an existing location type by ID.",
		Params: []registry.Param{
			{Name: "id", Type: registry.TypeInteger, Description: "ID of the location type to update", Required: true},
			{Name: "name", Type: registry.TypeString, Description: "New name", Required: true},
			{Name: "level", Type: registry.TypeNumber, Description: "New level", Required: true},
			{Name: "parent_id", Type: registry.TypeInteger, Description: "Parent location type ID, null to keep it top-level"},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			payload := map[string]any{"id": args["id"], "name": name, "level": args["level"]}
			if parent, ok := args["parent_id"]; ok {
				payload["parentId"] = parent
			}
			path := fmt.Sprintf("/addressLevelType/%s", renderValue(args["id"]))
			data, err := client.Call(ctx, http.MethodPut, path, rc.AuthToken, payload)
			if err != nil {
				return formatFailure("update location type", err), nil
			}
			if data == nil {
				data = payload
			}
			return formatUpdate("Location type", name, "id", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "delete_location_type",
		Description: "Delete a location type by ID.",
		Params: []registry.Param{
			{Name: "id", Type: registry.TypeInteger, Description: "ID of the location type to delete", Required: true},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			path := fmt.Sprintf("/addressLevelType/%s", renderValue(args["id"]))
			if _, err := client.Call(ctx, http.MethodDelete, path, rc.AuthToken, nil); err != nil {
				return formatFailure("delete location type", err), nil
			}
			return fmt.Sprintf("Location type with ID %s deleted successfully", renderValue(args["id"])), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "get_locations",
		Description: "Retrieve the existing locations with their IDs to resolve parent references.",
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			data, err := client.Call(ctx, http.MethodGet, "/locations", rc.AuthToken, nil)
			if err != nil {
				return formatFailure("retrieve locations", err), nil
			}
			if data == nil {
				return formatEmpty("locations"), nil
			}
			return formatList(data, "level"), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "create_location",
		Description: "Create a real location (e.g., Himachal Pradesh, Kullu) in the location hierarchy.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the location", Required: true},
			{Name: "level", Type: registry.TypeInteger, Description: "Level of the location (e.g., 1 for Village)", Required: true},
			{Name: "location_type", Type: registry.TypeString, Description: "Name of the location type this location instantiates", Required: true},
			{Name: "parent_id", Type: registry.TypeInteger, Description: "Parent LOCATION ID (never a location type ID)"},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			parents := []any{}
			if parent, ok := args["parent_id"]; ok && parent != nil {
				parents = append(parents, map[string]any{"id": parent})
			}
			// The endpoint takes a batch; one location per call keeps
			// result IDs unambiguous.
			payload := []any{map[string]any{
				"name":    name,
				"level":   args["level"],
				"type":    args["location_type"],
				"parents": parents,
			}}
			data, err := client.Call(ctx, http.MethodPost, "/locations", rc.AuthToken, payload)
			if err != nil {
				return formatFailure("create location", err), nil
			}
			return formatCreation("Location", name, "id", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "get_catchments",
		Description: "Retrieve the existing catchments with their IDs.",
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			data, err := client.Call(ctx, http.MethodGet, "/catchment", rc.AuthToken, nil)
			if err != nil {
				return formatFailure("retrieve catchments", err), nil
			}
			if data == nil {
				return formatEmpty("catchments"), nil
			}
			return formatList(data, ""), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "create_catchment",
		Description: "Create a catchment grouping locations for data collection.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the catchment", Required: true},
			{Name: "location_ids", Type: registry.TypeArray, Description: "IDs of the locations the catchment covers", Required: true,
				Items: &registry.Param{Type: registry.TypeInteger}},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			payload := map[string]any{
				"deleteFastSync": false,
				"name":           name,
				"locationIds":    args["location_ids"],
			}
			data, err := client.Call(ctx, http.MethodPost, "/catchment", rc.AuthToken, payload)
			if err != nil {
				return formatFailure("create catchment", err), nil
			}
			return formatCreation("Catchment", name, "id", data), nil
		},
	})
}
