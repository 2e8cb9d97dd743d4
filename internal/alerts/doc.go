// Package alerts implements the rule evaluation engine and webhook delivery
// for market alerting. Rules are evaluated against each analysis run;
// webhooks are delivered to Slack, Teams, or generic HTTP targets.
package alerts
