package sqlinline

const QCreateGenerationsTable = `--sql 93281ba8-10ae-41a7-b361-ad4cf4121d9c
create table if not exists generations (
  id uuid primary key default gen_random_uuid(),
  session_id text not null,
  request_id text not null,
  prompt text not null,
  mode text not null,
  provider text,
  model text,
  status text not null,
  message text,
  elapsed_ms bigint not null default 0,
  size_bytes bigint not null default 0,
  created_at timestamptz not null default now()
);
`

const QInsertGeneration = `--sql fb38c414-a83c-4b10-b205-e28a9974bf36
insert into generations(
  session_id,
  request_id,
  prompt,
  mode,
  provider,
  model,
  status,
  message,
  elapsed_ms,
  size_bytes
)
values ($1::text, $2::text, $3::text, $4::text, nullif($5::text, ''), nullif($6::text, ''), $7::text, nullif($8::text, ''), $9::bigint, $10::bigint);
`

const QListRecentGenerations = `--sql 9fc23a7e-721d-4ae9-b6c4-39bf3eba860c
select id, session_id, request_id, prompt, mode, provider, model, status, message, elapsed_ms, size_bytes, created_at
from generations
order by created_at desc
limit $1::int;
`

const QGenerationSummary = `--sql 3a43f341-68b6-4110-8acc-bd1b0f7d6b96
with agg as (
  select
    count(*) as total,
    count(*) filter (where status = 'succeeded') as succeeded,
    count(*) filter (where status = 'failed') as failed,
    avg(elapsed_ms) filter (where status = 'succeeded') as avg_elapsed_ms
  from generations
)
select total, succeeded, failed,
       round(100.0 * succeeded / nullif(total, 0), 2) as success_rate,
       avg_elapsed_ms
from agg;
`

const QPurgeGenerationsBefore = `--sql 678795e3-5fb1-48d0-8030-c721f18dd227
delete from generations
where created_at < $1::timestamptz;
`
