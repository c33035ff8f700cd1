package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Manifest maps project folders to the files each one must contain.
type Manifest struct {
	Folders map[string][]string `yaml:"folders"`
}

// defaultManifest mirrors the layout the UnityExpress chart and build
// scripts assume. Overridable via LoadManifest for forks that move files.
const defaultManifest = `folders:
  api-server:
    - Dockerfile
    - package.json
    - src/index.js
    - src/config.js
    - src/mongo.js
    - src/kafka.js
    - src/metrics.js
    - src/routes.js
  web-server:
    - Dockerfile
    - nginx.conf
    - public/index.html
    - public/app.js
    - public/style.css
  charts/unityexpress:
    - Chart.yaml
    - values.yaml
    - templates/api-deployment.yaml
    - templates/web-deployment.yaml
    - templates/mongo-statefulset.yaml
    - templates/kafka-deployment.yaml
    - templates/api-hpa.yaml
    - templates/api-servicemonitor.yaml
    - templates/prometheus-adapter-config.yaml
    - templates/_helpers.tpl
  monitoring:
    - prometheus-adapter-values.yaml
`

// DefaultManifest returns the compiled-in expected structure.
func DefaultManifest() (Manifest, error) {
	return parseManifest([]byte(defaultManifest))
}

// LoadManifest reads an expected-structure manifest from a YAML file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read structure manifest: %w", err)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode structure manifest: %w", err)
	}
	if len(m.Folders) == 0 {
		return Manifest{}, fmt.Errorf("structure manifest lists no folders")
	}
	return m, nil
}

// Verify checks the located root against the manifest and returns every
// missing folder or file as a project-relative path, sorted for stable
// output. An empty slice means the layout is complete.
func (m Manifest) Verify(root string) []string {
	var missing []string
	folders := make([]string, 0, len(m.Folders))
	for folder := range m.Folders {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	for _, folder := range folders {
		folderPath := filepath.Join(root, filepath.FromSlash(folder))
		info, err := os.Stat(folderPath)
		if err != nil || !info.IsDir() {
			missing = append(missing, folder+string(filepath.Separator))
			continue
		}
		for _, rel := range m.Folders[folder] {
			filePath := filepath.Join(folderPath, filepath.FromSlash(rel))
			info, err := os.Stat(filePath)
			if err != nil || info.IsDir() {
				missing = append(missing, filepath.ToSlash(filepath.Join(folder, rel)))
			}
		}
	}
	return missing
}
