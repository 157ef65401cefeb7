package tools

import (
	"context"
	"net/http"
	"strings"

	"github.com/reifyhq/reify/internals/platform"
	"github.com/reifyhq/reify/internals/registry"
)

// registerDesignerTools wires the data-model operations: subject types,
// programs and encounter types.
func registerDesignerTools(reg *registry.Registry, client *platform.Client) {
	reg.Register(registry.Tool{
		Name:        "create_subject_type",
		Description: "Create a subject type (e.g., Person, Household) for data collection.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the subject type", Required: true},
			{Name: "subject_type", Type: registry.TypeString, Description: "Kind of subject: Person, Individual, Group, Household or User", Required: true},
			{Name: "location_type_uuid", Type: registry.TypeString, Description: "Location type UUID to sync by"},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			locationTypeUUIDs := []any{}
			if u, ok := args["location_type_uuid"].(string); ok && u != "" {
				locationTypeUUIDs = append(locationTypeUUIDs, u)
			}
			payload := map[string]any{
				"name":                        name,
				"type":                        args["subject_type"],
				"groupRoles":                  []any{},
				"subjectSummaryRule":          "",
				"programEligibilityCheckRule": "",
				"shouldSyncByLocation":        true,
				"lastNameOptional":            false,
				"active":                      true,
				"locationTypeUUIDs":           locationTypeUUIDs,
				"settings": map[string]any{
					"displayRegistrationDetails": true,
					"displayPlannedEncounters":   true,
				},
			}
			data, err := client.Call(ctx, http.MethodPost, "/web/subjectType", rc.AuthToken, payload)
			if err != nil {
				return formatFailure("create subject type", err), nil
			}
			return formatCreation("Subject type", name, "uuid", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "create_program",
		Description: "Create a program for managing data collection activities.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the program", Required: true},
			{Name: "subject_type_uuid", Type: registry.TypeString, Description: "UUID of the subject type the program enrolls", Required: true},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			payload := map[string]any{
				"name":                name,
				"colour":              "#611717",
				"programSubjectLabel": strings.ReplaceAll(strings.ToLower(name), " ", "_"),
				"subjectTypeUuid":     args["subject_type_uuid"],
				"enrolmentSummaryRule":                     "",
				"enrolmentEligibilityCheckRule":            "",
				"enrolmentEligibilityCheckDeclarativeRule": nil,
				"manualEligibilityCheckRequired":           false,
				"manualEnrolmentEligibilityCheckRule":      "",
				"showGrowthChart":                          false,
				"allowMultipleEnrolments":                  true,
			}
			data, err := client.Call(ctx, http.MethodPost, "/web/program", rc.AuthToken, payload)
			if err != nil {
				return formatFailure("create program", err), nil
			}
			return formatCreation("Program", name, "uuid", data), nil
		},
	})

	reg.Register(registry.Tool{
		Name:        "create_encounter_type",
		Description: "Create an encounter type for a subject type, optionally scoped to a program.",
		Params: []registry.Param{
			{Name: "name", Type: registry.TypeString, Description: "Name of the encounter type", Required: true},
			{Name: "subject_type_uuid", Type: registry.TypeString, Description: "UUID of the subject type", Required: true},
			{Name: "program_uuid", Type: registry.TypeString, Description: "UUID of the program; omit entirely for general encounters"},
		},
		Handler: func(ctx context.Context, rc registry.ReqContext, args map[string]any) (string, error) {
			name, _ := args["name"].(string)
			payload := map[string]any{
				"name":            name,
				"loaded":          true,
				"subjectTypeUuid": args["subject_type_uuid"],
				"encounterEligibilityCheckRule":            "",
				"entityEligibilityCheckDeclarativeRule":    nil,
			}
			// General encounters must not carry the key at all.
			if u, ok := args["program_uuid"].(string); ok && u != "" {
				payload["programUuid"] = u
			}
			data, err := client.Call(ctx, http.MethodPost, "/web/encounterType", rc.AuthToken, payload)
			if err != nil {
				return formatFailure("create encounter type", err), nil
			}
			return formatCreation("Encounter type", name, "uuid", data), nil
		},
	})
}
