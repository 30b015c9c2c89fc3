package snapshot

// Reference returns the built-in dashboard snapshot. Each call returns a
// fresh value.
func Reference() Snapshot {
	return Snapshot{
		Organizations: []Organization{
			{Name: "AWS", OrgCount: 2, AccountCount: Int(12), Green: 6, Yellow: Int(5)},
			{Name: "Azure", OrgCount: 2, SubscriptionCount: Int(3), Green: 2, Yellow: Int(1)},
			{Name: "GCP", OrgCount: 1, ProjectCount: Int(86), Green: 789, Yellow: Int(5)},
			{Name: "Oracle", OrgCount: 1, CompartmentCount: Int(86), Green: 789, Yellow: Int(5)},
			{Name: "On-Premises", OrgCount: 1, Green: 789},
		},
		ResourceSummary: map[string]int{
			"iam":        9257,
			"kubernetes": 14360,
			"network":    7244,
			"compute":    5340,
			"data":       1676,
			"container":  1290,
			"management": 1074,
			"security":   1008,
		},
		OpenFindings: OpenFindings{
			Critical: 20,
			High:     234,
			Medium:   65,
			Low:      985,
			Categories: map[string]int{
				"iam":                247,
				"anomalies":          247,
				"workloadProtection": 1175,
				"network":            69,
				"data":               247,
				"logging":            247,
				"compute":            247,
				"customPolicies":     247,
			},
		},
		Compliance: map[string]int{
			"overallStatus":      67,
			"awsWellArchitected": 67,
			"cis":                67,
			"gdpr":               67,
			"hipaa":              67,
		},
		ToxicCombination: []string{
			"6 Public workloads with critical vulnerabilities and high privileges",
			"110 external principals with access to sensitive data",
			"96 public storage accounts with shared key access",
			"114 external principals with high privileges",
			"1 public App service with high privileges",
		},
		QuickActions: []QuickAction{
			{Text: "Root user MFA is not enabled", Category: "AWS Dev"},
			{Text: "Public EC2 instance", Details: "Root: ff-896850635108-acme-prd-dbapp"},
			{Text: "Container image has critical vulnerabilities", Cluster: "cluster 25"},
			{Text: "Public KMS key", Details: "DefaultKey"},
		},
		Trends: Trends{
			OpenedFindings:    1377,
			ClosedFindings:    314,
			StaredFindings:    3,
			SnoozedFindings:   9,
			TicketsCreated:    105,
			ExcludedResources: 35,
		},
	}
}
