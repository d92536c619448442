package classify

var questionTemplates = map[string][]string{
	TypeAuthentication: {
		"Will users be able to register using their email address or will they need an existing account?",
		"Do you envision any specific password complexity rules (minimum length, special characters, etc.)?",
		"In case of a forgotten password, should the user receive an email with a temporary link for resetting it?",
		"Will there be any additional authentication factors required, like two-factor authentication or biometrics?",
		"Should users be able to stay logged in across browser sessions?",
		"Do you need any specific user roles or permission levels?",
	},
	TypeCRUD: {
		"What type of data will users be able to create, edit, and delete?",
		"Should there be any restrictions on who can perform these operations?",
		"Do you need audit trails to track who made changes and when?",
		"Should deleted items be permanently removed or archived?",
		"Will users need to confirm before deleting important data?",
		"Do you need bulk operations (create/update/delete multiple items at once)?",
	},
	TypeReporting: {
		"What specific metrics or data points should be displayed in the dashboard?",
		"Who will have access to view these reports and analytics?",
		"Do you need real-time data updates or is periodic refresh sufficient?",
		"Should users be able to export reports in different formats (PDF, Excel, etc.)?",
		"Do you need customizable dashboards or predefined views?",
		"What time periods should be supported for historical data analysis?",
	},
	TypeIntegration: {
		"Which external services or APIs need to be integrated?",
		"What type of data will be exchanged with these external services?",
		"Do you need real-time synchronization or batch processing?",
		"What should happen if the external service is unavailable?",
		"Do you need webhook support for receiving updates from external services?",
		"Should there be retry logic for failed API calls?",
	},
	TypeUI: {
		"What devices and screen sizes should the interface support?",
		"Do you need any specific accessibility features or compliance requirements?",
		"Should the interface be customizable by users or have a fixed design?",
		"Do you need any specific animations or interactive elements?",
		"Should the interface support multiple languages or themes?",
		"What is the expected user flow through the interface?",
	},
	TypeNotification: {
		"What types of notifications should be sent (email, SMS, push, in-app)?",
		"Who should receive these notifications and when?",
		"Should users be able to customize their notification preferences?",
		"Do you need notification templates or dynamic content?",
		"Should there be any rate limiting or frequency controls?",
		"Do you need delivery confirmation or read receipts?",
	},
	TypePayment: {
		"Which payment methods should be supported (credit cards, PayPal, etc.)?",
		"Do you need subscription billing or one-time payments?",
		"What currency and pricing model will be used?",
		"Do you need invoice generation and management?",
		"Should there be any refund or cancellation policies?",
		"Do you need integration with accounting or tax systems?",
	},
	TypeSearch: {
		"What type of content should be searchable?",
		"Do you need advanced search filters or just basic keyword search?",
		"Should search results be ranked by relevance or other criteria?",
		"Do you need search suggestions or autocomplete functionality?",
		"Should search history be saved for users?",
		"Do you need full-text search or just metadata search?",
	},
	TypeWorkflow: {
		"What are the main steps or stages in this workflow?",
		"Who needs to approve or review at each stage?",
		"What should happen if someone is unavailable for approval?",
		"Do you need notifications when workflow status changes?",
		"Should there be time limits or deadlines for each stage?",
		"Do you need the ability to skip or modify workflow steps?",
	},
	TypeGeneral: {
		"Who are the primary users of this feature?",
		"What is the main goal or problem this feature solves?",
		"Are there any performance or scalability requirements?",
		"Do you need any specific security or compliance features?",
		"What is the expected timeline for implementing this feature?",
		"Are there any dependencies on other features or systems?",
	},
}

var typeDescriptions = map[string]string{
	TypeAuthentication: "User authentication and authorization features",
	TypeCRUD:           "Create, read, update, and delete data operations",
	TypeReporting:      "Data visualization, analytics, and reporting features",
	TypeIntegration:    "Third-party service integrations and API connections",
	TypeUI:             "User interface components and design elements",
	TypeNotification:   "Communication and alert systems",
	TypePayment:        "Payment processing and billing features",
	TypeSearch:         "Search and discovery functionality",
	TypeWorkflow:       "Business process automation and workflow management",
	TypeGeneral:        "General software features",
}

// QuestionTemplates returns the canned clarifying questions for a feature
// type, falling back to the general set for unknown types.
func QuestionTemplates(featureType string) []string {
	if ts, ok := questionTemplates[featureType]; ok {
		return ts
	}
	return questionTemplates[TypeGeneral]
}

// TypeDescription returns a human-readable summary of a feature type.
func TypeDescription(featureType string) string {
	if d, ok := typeDescriptions[featureType]; ok {
		return d
	}
	return "Unknown feature type"
}
