package procedure

// Queries the client subscribes to.
const (
	Ping                  = "ping"
	Me                    = "me"
	FindWorkspace         = "workspace.find"
	FindEntry             = "entry.find"
	SearchEntries         = "entry.search"
	ListWorkspaceEntries  = "workspace.entries.all"
	ListCollectionEntries = "collection.entries.all"
	ListWorkspaceMembers  = "workspace.members.all"
	ListCollectionMembers = "collection.members.all"
)

// Mutations the client dispatches.
const (
	SignIn  = "auth.sign-in"
	SignOut = "auth.sign-out"

	CreateWorkspace        = "workspace.create"
	UpdateWorkspaceDetails = "workspace.details.update"
	DeleteWorkspace        = "workspace.delete"

	CreateCollection = "collection.create"
	DeleteCollection = "collection.delete"

	ImportEntries   = "entry.import"
	DeleteEntries   = "entry.delete"
	RequeueEntries  = "entry.requeue"
	GetLinkMetadata = "get-link-metadata"
)
