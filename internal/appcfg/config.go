// Package appcfg holds the deployment constants for the UnityExpress stack
// and resolves the chart/values paths relative to the project root.
package appcfg

import "path/filepath"

// ProjectUUID watermarks every deployed release so verification can confirm
// which build of the stack is running.
const ProjectUUID = "e271b052-9200-4502-b491-62f1649c07"

// WatermarkAnnotation is the pod annotation the chart stamps with
// ProjectUUID; verification reads it back.
const WatermarkAnnotation = "unityexpress/watermark"

// Config describes one UnityExpress deployment target.
type Config struct {
	Namespace           string
	MonitoringNamespace string

	Release           string
	MonitoringRelease string
	MonitoringChart   string
	MonitoringRepoURL string

	APIService string
	WebService string

	APIImage string
	WebImage string

	APIDeployment string

	KafkaService string
	KafkaPort    int
	MongoService string
	MongoPort    int

	// Local ports used for the temporary port-forward probes.
	APIProbePort int
	WebProbePort int
	HealthPath   string

	ProjectRoot string
}

// Default returns the stock UnityExpress deployment configuration. The
// namespace, service names, and probe ports are fixed by the chart; the
// project root is filled in once located.
func Default() Config {
	return Config{
		Namespace:           "unityexpress",
		MonitoringNamespace: "monitoring",
		Release:             "unityexpress",
		MonitoringRelease:   "monitoring",
		MonitoringChart:     "kube-prometheus-stack",
		MonitoringRepoURL:   "https://prometheus-community.github.io/helm-charts",
		APIService:          "unityexpress-api",
		WebService:          "unityexpress-web",
		APIImage:            "unityexpress-api:local",
		WebImage:            "unityexpress-web:local",
		APIDeployment:       "unityexpress-api",
		KafkaService:        "unityexpress-kafka",
		KafkaPort:           9092,
		MongoService:        "unityexpress-mongo",
		MongoPort:           27017,
		APIProbePort:        30080,
		WebProbePort:        31080,
		HealthPath:          "/healthz",
	}
}

// Markers are the directories that must all exist under the project root.
func Markers() []string {
	return []string{"api-server", "charts", "scripts"}
}

// ChartPath returns the absolute path of the UnityExpress chart.
func (c Config) ChartPath() string {
	return filepath.Join(c.ProjectRoot, "charts", "unityexpress")
}

// ValuesPath returns the Minikube values override shipped with the chart.
func (c Config) ValuesPath() string {
	return filepath.Join(c.ProjectRoot, "charts", "unityexpress", "values-minikube.yaml")
}

// MonitoringValuesPath returns the prometheus-adapter values file.
func (c Config) MonitoringValuesPath() string {
	return filepath.Join(c.ProjectRoot, "monitoring", "prometheus-adapter-values.yaml")
}

// APIContext returns the api-server docker build context.
func (c Config) APIContext() string { return filepath.Join(c.ProjectRoot, "api-server") }

// WebContext returns the web-server docker build context.
func (c Config) WebContext() string { return filepath.Join(c.ProjectRoot, "web-server") }
