package agents

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(s scanner) (Agent, error) {
	var a Agent
	err := s.Scan(
		&a.ID, &a.AccountID, &a.Name, &a.Description,
		&a.IsDefault, &a.IsPublic, &a.Avatar, &a.AvatarColor,
		&a.VersionCount, &a.Config, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func scanVersion(s scanner) (AgentVersion, error) {
	var v AgentVersion
	err := s.Scan(&v.ID, &v.AgentID, &v.VersionNumber, &v.Config, &v.CreatedAt)
	return v, err
}
