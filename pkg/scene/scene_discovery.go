package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SceneInfo describes a renderable scene, either built in or a description file
type SceneInfo struct {
	ID          string
	Name        string
	Description string
	Type        string // "builtin" or "toml"
	FilePath    string // description file, empty for built-ins
}

// ListSceneFiles scans dir for *.toml scene descriptions. A missing
// directory yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, path := range files {
		info, err := ParseSceneMetadata(path)
		if err != nil {
			logger.Warningf("failed to parse metadata for %s: %v", path, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool { return scenes[i].Name < scenes[j].Name })
	return scenes, nil
}

// ParseSceneMetadata reads "# Scene:" and "# Description:" header comments
func ParseSceneMetadata(path string) (SceneInfo, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := SceneInfo{
		ID:       "file:" + base,
		Name:     base,
		Type:     "toml",
		FilePath: path,
	}

	file, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		switch {
		case strings.HasPrefix(content, "Scene:"):
			info.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
		case strings.HasPrefix(content, "Description:"):
			info.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
		}
	}
	return info, scanner.Err()
}

// ListAllScenes returns the built-in scenes followed by the description files in dir
func ListAllScenes(dir string) ([]SceneInfo, error) {
	var all []SceneInfo
	for _, b := range Builtins() {
		all = append(all, SceneInfo{ID: b.ID, Name: b.Name, Description: b.Description, Type: "builtin"})
	}

	files, err := ListSceneFiles(dir)
	if err != nil {
		return nil, err
	}
	return append(all, files...), nil
}
