package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetDdScoreTool returns the get_dd_score tool definition
func createGetDdScoreTool() mcp.Tool {
	return mcp.NewTool("get_dd_score",
		mcp.WithDescription("Fetch Don't Die scores for a single date, a trailing window of days, or an inclusive date range. Returns one entry per date; failed dates carry an error marker instead of aborting the call."),
		mcp.WithString("date",
			mcp.Description("A single date in YYYY-MM-DD format."),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date for a range in YYYY-MM-DD format."),
		),
		mcp.WithString("end_date",
			mcp.Description("End date for a range in YYYY-MM-DD format."),
		),
		mcp.WithNumber("days",
			mcp.Description("Number of days ending at 'date' (inclusive). Used only with 'date'."),
		),
	)
}

// createGetMeasurementsTool returns the get_measurements tool definition
func createGetMeasurementsTool() mcp.Tool {
	return mcp.NewTool("get_measurements",
		mcp.WithDescription("Fetch the account biomarkers in the Measurements category."),
	)
}

// createGetCapabilitiesTool returns the get_capabilities tool definition
func createGetCapabilitiesTool() mcp.Tool {
	return mcp.NewTool("get_capabilities",
		mcp.WithDescription("Fetch the account biomarkers in the Capabilities category."),
	)
}

// createGetBiomarkersTool returns the get_biomarkers tool definition
func createGetBiomarkersTool() mcp.Tool {
	return mcp.NewTool("get_biomarkers",
		mcp.WithDescription("Fetch the account biomarkers in the Biomarkers category."),
	)
}

// createGetAllBiomarkersTool returns the get_all_biomarkers tool definition
func createGetAllBiomarkersTool() mcp.Tool {
	return mcp.NewTool("get_all_biomarkers",
		mcp.WithDescription("Fetch account biomarkers for every category, keyed by category name. Categories that fail carry an error marker instead of aborting the call."),
	)
}

// createGetUserProtocolsTool returns the get_user_protocols tool definition
func createGetUserProtocolsTool() mcp.Tool {
	return mcp.NewTool("get_user_protocols",
		mcp.WithDescription("List the user's protocols, optionally expanded with their sections."),
		mcp.WithBoolean("include_sections",
			mcp.Description("Also fetch each protocol's sections (default: false)."),
		),
	)
}

// createCreateUserProtocolTool returns the create_user_protocol tool definition
func createCreateUserProtocolTool() mcp.Tool {
	return mcp.NewTool("create_user_protocol",
		mcp.WithDescription("Create a new protocol for the user. A missing 'status' field defaults to 'Draft'."),
		mcp.WithObject("protocol_data",
			mcp.Required(),
			mcp.Description("The protocol record to create."),
		),
	)
}

// createCreateUserProtocolSectionTool returns the create_user_protocol_section tool definition
func createCreateUserProtocolSectionTool() mcp.Tool {
	return mcp.NewTool("create_user_protocol_section",
		mcp.WithDescription("Create a new section under an existing protocol. A missing 'status' field defaults to 'Draft'."),
		mcp.WithString("protocol_id",
			mcp.Required(),
			mcp.Description("ID of the protocol to attach the section to."),
		),
		mcp.WithObject("section_data",
			mcp.Required(),
			mcp.Description("The section record to create."),
		),
	)
}
