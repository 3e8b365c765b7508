package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- TIMELINE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS timeline SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON timeline TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON timeline TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS start_year ON timeline TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS end_year ON timeline TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS created ON timeline TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- THINKER TABLE
    -- ==========================================================================
    -- A thinker row belongs to at most one timeline; reuse on another timeline
    -- clones the row rather than reassigning it.
    DEFINE TABLE IF NOT EXISTS thinker SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS timeline_id ON thinker TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS name ON thinker TYPE string;
    -- norm_name mirrors the matcher's normalization: lowercase with interior
    -- whitespace collapsed to single spaces
    DEFINE FIELD IF NOT EXISTS norm_name ON thinker VALUE array::join(string::words(string::lowercase(name)), ' ');
    DEFINE FIELD IF NOT EXISTS birth_year ON thinker TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS death_year ON thinker TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS era ON thinker TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS discipline ON thinker TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS nationality ON thinker TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS notes ON thinker TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON thinker TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS thinker_norm_name ON thinker FIELDS norm_name;
    DEFINE INDEX IF NOT EXISTS thinker_timeline ON thinker FIELDS timeline_id;

    -- ==========================================================================
    -- CONNECTION TABLE
    -- ==========================================================================
    -- Unique constraint: ordered [from, to] pair allows at most one row
    DEFINE TABLE IF NOT EXISTS connection SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS timeline_id ON connection TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS from_id ON connection TYPE string;
    DEFINE FIELD IF NOT EXISTS to_id ON connection TYPE string;
    DEFINE FIELD IF NOT EXISTS rel_type ON connection TYPE string;
    DEFINE FIELD IF NOT EXISTS strength ON connection TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS notes ON connection TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON connection TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS pair_key ON connection VALUE string::concat(from_id, '->', to_id);
    DEFINE INDEX IF NOT EXISTS unique_connection_pair ON connection FIELDS pair_key UNIQUE;

    -- ==========================================================================
    -- EVENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS event SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS timeline_id ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS name ON event TYPE string;
    DEFINE FIELD IF NOT EXISTS year ON event TYPE int;
    DEFINE FIELD IF NOT EXISTS event_type ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS notes ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON event TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS event_timeline ON event FIELDS timeline_id;

    -- ==========================================================================
    -- PUBLICATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS publication SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS thinker_id ON publication TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON publication TYPE string;
    DEFINE FIELD IF NOT EXISTS year ON publication TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS pub_type ON publication TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS notes ON publication TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON publication TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS publication_thinker ON publication FIELDS thinker_id;

    -- ==========================================================================
    -- QUOTE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS quote SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS thinker_id ON quote TYPE string;
    DEFINE FIELD IF NOT EXISTS text ON quote TYPE string;
    DEFINE FIELD IF NOT EXISTS source ON quote TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON quote TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS quote_thinker ON quote FIELDS thinker_id;

    -- ==========================================================================
    -- INGEST JOB TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS ingest_job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS job_type ON ingest_job TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON ingest_job TYPE string;
    DEFINE FIELD IF NOT EXISTS payload ON ingest_job TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS result ON ingest_job TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS error ON ingest_job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS cancel_requested ON ingest_job TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS started_at ON ingest_job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON ingest_job TYPE option<datetime>;
    DEFINE INDEX IF NOT EXISTS ingest_job_status ON ingest_job FIELDS status;

    -- ==========================================================================
    -- SOURCE ARTIFACT TABLE
    -- ==========================================================================
    -- Immutable raw text owned by a job; never updated after creation
    DEFINE TABLE IF NOT EXISTS source_artifact SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS job_id ON source_artifact TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON source_artifact TYPE string;
    DEFINE FIELD IF NOT EXISTS length ON source_artifact TYPE int;
    DEFINE FIELD IF NOT EXISTS token_estimate ON source_artifact TYPE int;
    DEFINE FIELD IF NOT EXISTS created ON source_artifact TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS source_artifact_job ON source_artifact FIELDS job_id;

    -- ==========================================================================
    -- BOOTSTRAP SESSION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS bootstrap_session SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS job_id ON bootstrap_session TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON bootstrap_session TYPE string;
    DEFINE FIELD IF NOT EXISTS hints ON bootstrap_session TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS preview ON bootstrap_session TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS telemetry ON bootstrap_session TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS overlay ON bootstrap_session TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS candidates ON bootstrap_session TYPE array<object> DEFAULT [];
    REMOVE FIELD IF EXISTS candidates.* ON bootstrap_session;
    DEFINE FIELD candidates.* ON bootstrap_session TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS expires_at ON bootstrap_session TYPE datetime;
    DEFINE FIELD IF NOT EXISTS committed_timeline_id ON bootstrap_session TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS error ON bootstrap_session TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON bootstrap_session TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON bootstrap_session TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS bootstrap_session_job ON bootstrap_session FIELDS job_id;
    DEFINE INDEX IF NOT EXISTS bootstrap_session_status ON bootstrap_session FIELDS status;

    -- ==========================================================================
    -- COMMIT AUDIT TABLE
    -- ==========================================================================
    -- Append-only history per session
    DEFINE TABLE IF NOT EXISTS commit_audit SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS session_id ON commit_audit TYPE string;
    DEFINE FIELD IF NOT EXISTS timeline_id ON commit_audit TYPE string;
    DEFINE FIELD IF NOT EXISTS created_counts ON commit_audit TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS skipped_counts ON commit_audit TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS warnings ON commit_audit TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS id_mappings ON commit_audit TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS committed_by ON commit_audit TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS message ON commit_audit TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON commit_audit TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS commit_audit_session ON commit_audit FIELDS session_id;
`
