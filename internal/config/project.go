package config

// Project is one repository the app manages worktrees for.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	// FolderID groups the project in the sidebar. Empty means top level.
	FolderID string `json:"folder_id,omitempty"`
}

// Folder is a named sidebar group of projects.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AddProject adds a project. Returns false if one with the same ID or path
// already exists.
func (c *Config) AddProject(p Project) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.Projects {
		if existing.ID == p.ID || existing.Path == p.Path {
			return false
		}
	}
	c.Projects = append(c.Projects, p)
	return true
}

// RemoveProject removes a project by ID.
// Returns true if the project was found and removed, false otherwise.
func (c *Config) RemoveProject(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, p := range c.Projects {
		if p.ID == id {
			c.Projects = append(c.Projects[:i], c.Projects[i+1:]...)
			return true
		}
	}
	return false
}

// RenameProject updates a project's display name.
func (c *Config) RenameProject(id, newName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.Projects {
		if c.Projects[i].ID == id {
			c.Projects[i].Name = newName
			return true
		}
	}
	return false
}

// GetProject returns a copy of a project by ID, or nil if not found.
func (c *Config) GetProject(id string) *Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.Projects {
		if c.Projects[i].ID == id {
			p := c.Projects[i]
			return &p
		}
	}
	return nil
}

// GetProjects returns a copy of the projects slice
func (c *Config) GetProjects() []Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	projects := make([]Project, len(c.Projects))
	copy(projects, c.Projects)
	return projects
}

// SetProjectFolder assigns a project to a folder. Pass empty folderID to
// move it to the top level. Returns false if the project was not found.
func (c *Config) SetProjectFolder(projectID, folderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.Projects {
		if c.Projects[i].ID == projectID {
			c.Projects[i].FolderID = folderID
			return true
		}
	}
	return false
}

// GetProjectsByFolder returns all projects assigned to the given folder.
func (c *Config) GetProjectsByFolder(folderID string) []Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if folderID == "" {
		return nil
	}

	var projects []Project
	for _, p := range c.Projects {
		if p.FolderID == folderID {
			projects = append(projects, p)
		}
	}
	return projects
}

// AddFolder adds a folder. Returns false if a folder with the same name
// already exists.
func (c *Config) AddFolder(f Folder) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.Folders {
		if existing.Name == f.Name {
			return false
		}
	}
	c.Folders = append(c.Folders, f)
	return true
}

// RemoveFolder removes a folder by ID and moves its projects to the top
// level. Returns false if the folder was not found.
func (c *Config) RemoveFolder(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for i, f := range c.Folders {
		if f.ID == id {
			c.Folders = append(c.Folders[:i], c.Folders[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}

	for i := range c.Projects {
		if c.Projects[i].FolderID == id {
			c.Projects[i].FolderID = ""
		}
	}
	return true
}

// RenameFolder renames a folder. Returns false if the folder was not found
// or a folder with the new name already exists.
func (c *Config) RenameFolder(id, newName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range c.Folders {
		if f.Name == newName && f.ID != id {
			return false
		}
	}

	for i := range c.Folders {
		if c.Folders[i].ID == id {
			c.Folders[i].Name = newName
			return true
		}
	}
	return false
}

// GetFolders returns a copy of the folders slice
func (c *Config) GetFolders() []Folder {
	c.mu.RLock()
	defer c.mu.RUnlock()

	folders := make([]Folder, len(c.Folders))
	copy(folders, c.Folders)
	return folders
}
