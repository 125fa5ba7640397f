package history

import (
	git "github.com/go-git/go-git/v5"
)

// Stamp identifies the source revision a run was made against
type Stamp struct {
	Commit string
	Branch string
}

// GitStamp reads HEAD of the repository containing dir. It returns an
// empty stamp when dir is not inside a git repository.
func GitStamp(dir string) Stamp {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Stamp{}
	}

	head, err := repo.Head()
	if err != nil {
		return Stamp{}
	}

	stamp := Stamp{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		stamp.Branch = head.Name().Short()
	}
	return stamp
}
